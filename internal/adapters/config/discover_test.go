package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestLoader_Discover(t *testing.T) {
	t.Run("walks up to the nearest manifest", func(t *testing.T) {
		root := t.TempDir()
		want := createFile(t, root, "kiln.yaml", "units: []\n")
		nested := filepath.Join(root, "src", "partials")
		require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

		got, err := newLoader(t).Discover(nested)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("nearest directory wins", func(t *testing.T) {
		root := t.TempDir()
		createFile(t, root, "kiln.yaml", "units: []\n")
		want := createFile(t, root, "sub/kiln.hcl", "")

		got, err := newLoader(t).Discover(filepath.Join(root, "sub"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("yaml preferred over hcl and jsonc", func(t *testing.T) {
		root := t.TempDir()
		createFile(t, root, "kiln.jsonc", "{}")
		createFile(t, root, "kiln.hcl", "")
		want := createFile(t, root, "kiln.yaml", "")

		got, err := newLoader(t).Discover(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("directory named like a manifest is ignored", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "kiln.yaml"), domain.DirPerm))
		want := createFile(t, root, "kiln.jsonc", "{}")

		got, err := newLoader(t).Discover(filepath.Join(root, "sub"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestLoader_DiscoverNotFound(t *testing.T) {
	if _, err := os.Stat("/kiln.yaml"); err == nil {
		t.Skip("a manifest exists at the filesystem root")
	}

	_, err := newLoader(t).Discover(t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}
