package cache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "five fields", spec: "*/15 * * * *"},
		{name: "descriptor", spec: "@hourly"},
		{name: "every", spec: "@every 30m"},
		{name: "garbage", spec: "whenever", wantErr: true},
		{name: "seconds field", spec: "0 */5 * * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.spec, New(time.Minute), logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid cache invalidation schedule")
				return
			}
			require.NoError(t, err)
			s.Start()
			s.Stop()
		})
	}
}

func TestScheduler_RunEmptiesCache(t *testing.T) {
	c := New(time.Minute)
	c.Put(Key{Op: "overview", Args: "a"}, 1)
	c.Put(Key{Op: "series", Args: "a"}, 2)

	s, err := NewScheduler("@hourly", c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	s.run()
	assert.Equal(t, 0, c.Len())
}
