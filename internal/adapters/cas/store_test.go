package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	rec := domain.BuildRecord{
		Target:       filepath.Join(root, "public", "index.html"),
		Renderer:     domain.RendererTemplate,
		Sources:      []string{filepath.Join(root, "src", "index.html")},
		OutputDigest: "ef46db3751d8e999",
		Bytes:        42,
		// Truncate because the monotonic clock reading does not survive JSON.
		BuiltAt:  time.Now().Truncate(time.Second).UTC(),
		Duration: 3 * time.Millisecond,
	}

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, store.Put(root, rec))

		got, err := store.Get(root, rec.Target)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, *got)
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		got, err := store.Get(root, "/nowhere.html")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_Overwrite(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()

	require.NoError(t, store.Put(root, domain.BuildRecord{Target: "/out/a.css", OutputDigest: "one"}))
	require.NoError(t, store.Put(root, domain.BuildRecord{Target: "/out/a.css", OutputDigest: "two"}))

	got, err := store.Get(root, "/out/a.css")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "two", got.OutputDigest)

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultStorePath()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_GetCorrupt(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()
	require.NoError(t, store.Put(root, domain.BuildRecord{Target: "/out/b.css"}))

	storeDir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(storeDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	//nolint:gosec // Test file permissions
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, entries[0].Name()), []byte("{ invalid json"), 0o600))

	_, err = store.Get(root, "/out/b.css")
	require.ErrorContains(t, err, domain.ErrStoreUnmarshalFailed.Error())
}

func TestStore_PutUnwritableRoot(t *testing.T) {
	root := t.TempDir()
	// A regular file where the state directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.KilnDirName), nil, domain.FilePerm))

	err := cas.NewStore().Put(root, domain.BuildRecord{Target: "/out/c.css"})
	require.ErrorContains(t, err, domain.ErrStoreCreateFailed.Error())
}
