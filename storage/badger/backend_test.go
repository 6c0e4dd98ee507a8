package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.DirExists(t, tmpDir)
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func seedKeys(t *testing.T, backend *Backend, keys ...string) {
	t.Helper()
	err := backend.WithTx(func(tx *badger.Txn) error {
		for _, k := range keys {
			if err := tx.Set([]byte(k), []byte("v:"+k)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)
}

func TestBackend_ScanAndDeletePrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seedKeys(t, backend, "a:1", "a:2", "a:3", "b:1")
	ctx := context.Background()

	var seen []string
	err = backend.Scan(ctx, []byte("a:"), func(key, value []byte) error {
		seen = append(seen, string(key))
		assert.Equal(t, "v:"+string(key), string(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2", "a:3"}, seen)

	require.NoError(t, backend.DeletePrefix([]byte("a:")))

	seen = nil
	err = backend.Scan(ctx, nil, func(key, _ []byte) error {
		seen = append(seen, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b:1"}, seen)
}

func TestBackend_ScanHonoursCancellation(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seedKeys(t, backend, "a:1", "a:2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = backend.Scan(ctx, []byte("a:"), func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMakeConditionSourceKey(t *testing.T) {
	key := makeConditionSourceKey("Endometriosis", "PMC10210381")
	assert.Equal(t, "condsrc:PMC10210381:Endometriosis", string(key))
	assert.NotEqual(t, string(key), string(makeConditionSourceKey("Endometriosis", "PMC1")))
}
