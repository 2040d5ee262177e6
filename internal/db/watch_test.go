package db

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tgienger/taskmate/internal/models"
)

func TestWatcher_PublishesForeignWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskmate.db")
	open := func() *DB {
		db, err := New(Options{Path: path, Driver: DriverPure, Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	}
	reader, writer := open(), open()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var last atomic.Int32
	_, err := reader.Subscribe(ctx, func(s []models.Task) { last.Store(int32(len(s))) })
	require.NoError(t, err)

	w, err := NewWatcher(reader)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	_, err = writer.Insert(ctx, sample("From elsewhere"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return last.Load() == 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_Relevant(t *testing.T) {
	db := openTest(t)
	w, err := NewWatcher(db)
	require.NoError(t, err)
	defer w.Stop()

	dir := filepath.Dir(db.Path())
	assert.True(t, w.relevant(db.Path()))
	assert.True(t, w.relevant(filepath.Join(dir, "taskmate.db-wal")))
	assert.False(t, w.relevant(filepath.Join(dir, "other.db")))
}
