package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-commerce/internal/config"
	"duck-commerce/internal/domain"
)

type workspace struct {
	dir     string
	raw     string
	sources string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	t.Setenv("DATASET_SOURCE", "local")
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	ws := workspace{dir: dir, raw: filepath.Join(dir, "raw"), sources: filepath.Join(dir, "sources.yaml")}
	require.NoError(t, os.MkdirAll(ws.raw, 0o755))
	require.NoError(t, os.WriteFile(ws.sources, []byte(`sources:
  - file: orders.csv
    table: orders
  - file: customers.csv
    table: customers
`), 0o644))
	return ws
}

func (ws workspace) write(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ws.raw, name), []byte(body), 0o644))
}

// execute runs duckc with the workspace's stores and returns exit code and output.
func (ws workspace) execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	base := []string{
		"--env-file", filepath.Join(ws.dir, "missing.env"),
		"--duckdb-path", filepath.Join(ws.dir, "store.duckdb"),
		"--meta-db-path", filepath.Join(ws.dir, "meta.sqlite"),
	}
	code := run(root, append(args, base...))
	return code, stdout.String(), stderr.String()
}

func TestIngest_AllLoaded(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "orders.csv", "order_id,customer_id,order_status,order_purchase_timestamp\no1,c1,delivered,2017-01-05 10:00:00\n")
	ws.write(t, "customers.csv", "customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\nc1,u1,01000,sao paulo,SP\n")

	code, out, stderr := ws.execute(t, "ingest", "--dataset-dir", ws.raw, "--sources-file", ws.sources)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "orders.csv")
	assert.Contains(t, out, "2 loaded, 0 skipped, 0 failed")

	code, out, stderr = ws.execute(t, "runs", "list", "-o", "json")
	require.Equal(t, 0, code, stderr)
	var runs []runView
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Loaded)

	code, out, stderr = ws.execute(t, "runs", "show", runs[0].ID)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "customers.csv")
	assert.Contains(t, out, "loaded")
}

func TestIngest_SkippedFileExitsNonZero(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "orders.csv", "order_id,customer_id,order_status,order_purchase_timestamp\no1,c1,delivered,2017-01-05 10:00:00\n")

	code, out, _ := ws.execute(t, "ingest", "--dataset-dir", ws.raw, "--sources-file", ws.sources, "-o", "json")
	assert.Equal(t, 1, code)

	var view runView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 1, view.Loaded)
	assert.Equal(t, 1, view.Skipped)
	require.Len(t, view.Files, 2)
	assert.Equal(t, "skipped", view.Files[1].Status)
	assert.NotEmpty(t, view.Files[1].Reason)
}

func TestRunsShow_NotFound(t *testing.T) {
	ws := newWorkspace(t)

	code, _, stderr := ws.execute(t, "runs", "show", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestSources(t *testing.T) {
	ws := newWorkspace(t)

	code, out, stderr := ws.execute(t, "sources")
	require.Equal(t, 0, code, stderr)
	for _, f := range domain.DefaultSourceFiles() {
		assert.Contains(t, out, f.FileName)
	}

	code, out, stderr = ws.execute(t, "sources", "--sources-file", ws.sources, "-o", "yaml")
	require.Equal(t, 0, code, stderr)
	files, err := config.ParseSources([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []domain.SourceFile{
		{FileName: "orders.csv", Table: "orders"},
		{FileName: "customers.csv", Table: "customers"},
	}, files)
}

func TestVersion(t *testing.T) {
	ws := newWorkspace(t)

	code, out, _ := ws.execute(t, "version", "-o", "json")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"version":"dev","commit":"none"}`, out)

	code, out, _ = ws.execute(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "duckc dev (commit: none)\n", out)
}

func TestInvalidOutputFormat(t *testing.T) {
	ws := newWorkspace(t)

	code, _, stderr := ws.execute(t, "version", "-o", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unsupported output format "xml"`)
}

func TestCompletion(t *testing.T) {
	ws := newWorkspace(t)

	code, out, _ := ws.execute(t, "completion", "bash")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "duckc")

	code, _, _ = ws.execute(t, "completion", "tcsh")
	assert.Equal(t, 1, code)
}

func TestApplyFlagOverrides(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr string
	}{
		{
			name: "unset flags keep config",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "env.duckdb", cfg.DuckDBPath)
				assert.Equal(t, 8080, cfg.Port)
			},
		},
		{
			name: "set flags win",
			args: []string{"--duckdb-path", "flag.duckdb", "--port", "9999", "--cleanup"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "flag.duckdb", cfg.DuckDBPath)
				assert.Equal(t, 9999, cfg.Port)
				assert.True(t, cfg.IngestCleanup)
			},
		},
		{
			name:    "source change is validated",
			args:    []string{"--source", "s3"},
			wantErr: "DATASET_SOURCE=s3 requires",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newIngestCmd(&rootOptions{})
			cmd.Flags().String("duckdb-path", "", "")
			cmd.Flags().Int("port", 0, "")
			require.NoError(t, cmd.Flags().Parse(tt.args))

			cfg := &config.Config{DuckDBPath: "env.duckdb", Port: 8080, DatasetSource: config.SourceLocal}
			err := applyFlagOverrides(cmd.Flags(), cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, []string{"FILE", "TABLE"}, [][]string{{"orders.csv", "orders"}}))
	assert.Equal(t, "FILE        TABLE\norders.csv  orders\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "abcdefghij", truncate("abcdefghij", 3))
}
