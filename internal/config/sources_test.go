package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-commerce/internal/domain"
)

func TestParseSources(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []domain.SourceFile
		wantErr string
	}{
		{
			name:  "valid",
			input: "sources:\n  - file: ' olist_orders_dataset.csv '\n    table: orders\n  - file: extra.csv\n    table: extra_1\n",
			want: []domain.SourceFile{
				{FileName: "olist_orders_dataset.csv", Table: "orders"},
				{FileName: "extra.csv", Table: "extra_1"},
			},
		},
		{name: "empty", input: "sources: []\n", wantErr: "lists no files"},
		{name: "missing_file", input: "sources:\n  - table: orders\n", wantErr: "file is required"},
		{name: "bad_table", input: "sources:\n  - file: a.csv\n    table: order items\n", wantErr: "invalid table"},
		{
			name:    "duplicate_table",
			input:   "sources:\n  - file: a.csv\n    table: orders\n  - file: b.csv\n    table: ORDERS\n",
			wantErr: "already used by a.csv",
		},
		{name: "not_yaml", input: "sources: [", wantErr: "parse sources manifest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSources([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigSources(t *testing.T) {
	cfg := &Config{}
	got, err := cfg.Sources()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSourceFiles(), got)

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - file: a.csv\n    table: a\n"), 0o644))
	cfg.SourcesFile = path
	got, err = cfg.Sources()
	require.NoError(t, err)
	assert.Equal(t, []domain.SourceFile{{FileName: "a.csv", Table: "a"}}, got)

	cfg.SourcesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Sources()
	require.Error(t, err)
}
