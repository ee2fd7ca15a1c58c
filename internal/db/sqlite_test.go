package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		wantTxLock bool
	}{
		{name: "write", mode: ModeWrite, wantTxLock: true},
		{name: "read", mode: ModeRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildDSN("/tmp/meta.sqlite", tt.mode)
			assert.True(t, strings.HasPrefix(dsn, "/tmp/meta.sqlite?"))
			assert.Contains(t, dsn, "_journal_mode=WAL")
			assert.Contains(t, dsn, "_busy_timeout=5000")
			assert.Contains(t, dsn, "_foreign_keys=on")
			if tt.wantTxLock {
				assert.Contains(t, dsn, "_txlock=immediate")
			} else {
				assert.NotContains(t, dsn, "_txlock")
			}
		})
	}
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "invalid", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/test.db", ModeWrite, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLitePair_PoolSizes(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 4, readDB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, readDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))
}

func TestOpenMetastore_Migrates(t *testing.T) {
	m := OpenTestMetastore(t)

	v, err := SchemaVersion(m.Write)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	for _, table := range []string{"ingestion_runs", "ingestion_files"} {
		var n int
		err := m.Read.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestOpenMetastore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.sqlite")

	m, err := OpenMetastore(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m, err = OpenMetastore(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())
}

func TestMetastore_ConcurrentReadsDuringWrites(t *testing.T) {
	m := OpenTestMetastore(t)

	var wg sync.WaitGroup
	writeErrs := make([]error, 10)
	readErrs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = m.Write.Exec(
				`INSERT INTO ingestion_runs (id, started_at, finished_at) VALUES (?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				"run-"+string(rune('a'+idx)))
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = m.Read.QueryRow(`SELECT count(*) FROM ingestion_runs`).Scan(&n)
		}(i)
	}
	wg.Wait()

	for i := range writeErrs {
		assert.NoError(t, writeErrs[i], "writer %d", i)
		assert.NoError(t, readErrs[i], "reader %d", i)
	}
}
