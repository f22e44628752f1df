package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	content := "fake audio bytes"
	key := "music/abc123.mp3"

	err = store.Save(ctx, key, strings.NewReader(content), int64(len(content)), "audio/mpeg")
	require.NoError(t, err)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	assert.Error(t, err)

	// Deleting a missing object is not an error.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStoreRejectsPathEscapes(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"../outside.txt", "music/../../etc/passwd", "/etc/passwd", "."} {
		err := store.Save(ctx, key, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, key)

		_, err = store.Open(ctx, key)
		assert.Error(t, err, key)
	}
}
