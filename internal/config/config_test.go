package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(err)
	require.Equal(2, cfg.Upload.MaxAttempts)
	require.Equal(3, cfg.Download.Concurrency)
	require.Equal(float64(60), cfg.Monitor.CheckInterval)
}

func TestLoadLegacyTargetFolder(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
library:
  target_folder: /Media
  target_folder_movie: /Movies
webdav:
  url: https://cloud.example.com/remote.php/dav/files/me
`)
	require.NoError(os.WriteFile(path, data, 0600))

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("/Media", cfg.Library.TVBase())
	require.Equal("/Movies", cfg.Library.MovieBase())
	require.Empty(cfg.Library.TargetFolder)
	require.Equal("https://cloud.example.com/remote.php/dav/files/me", cfg.WebDAV.URL)
	require.Equal(30, cfg.WebDAV.Timeout)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte("server: [unterminated"), 0600))

	_, err := Load(path)
	require.Error(err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Library.TargetFolderTV = "/TV"
	cfg.RealDebrid.APIKey = "secret"
	require.NoError(cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(err)
	require.Equal(os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(err)
	require.Equal("/TV", loaded.Library.TVBase())
	require.Equal("secret", loaded.RealDebrid.APIKey)
}

func TestBasesWithoutLegacy(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l := LibraryConfig{TargetFolder: "/All", TargetFolderTV: "/TV"}
	require.Equal("/TV", l.TVBase())
	require.Equal("/All", l.MovieBase())
}
