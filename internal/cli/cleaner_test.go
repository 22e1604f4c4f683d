package cli

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))
}

func TestCleaner_SingleDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "zz_aot_register.go"))
	touch(t, filepath.Join(dir, "zz_aot_manifest.yaml"))
	touch(t, filepath.Join(dir, "service.go"))
	touch(t, filepath.Join(dir, "zz_aot_notes.txt"))
	touch(t, filepath.Join(dir, "sub", "zz_aot_register.go"))

	removed, err := NewCleaner().CleanGeneratedFiles([]string{dir})
	require.NoError(t, err)

	sort.Strings(removed)
	assert.Equal(t, []string{
		filepath.Join(dir, "zz_aot_manifest.yaml"),
		filepath.Join(dir, "zz_aot_register.go"),
	}, removed)
	assert.FileExists(t, filepath.Join(dir, "service.go"))
	assert.FileExists(t, filepath.Join(dir, "zz_aot_notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "sub", "zz_aot_register.go"))
}

func TestCleaner_Recursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "zz_aot_register.go"))
	touch(t, filepath.Join(dir, "svc", "zz_aot_aot_registrations.go"))
	touch(t, filepath.Join(dir, "svc", "deep", "zz_aot_register_components0.go"))
	touch(t, filepath.Join(dir, "vendor", "lib", "zz_aot_register.go"))
	touch(t, filepath.Join(dir, ".hidden", "zz_aot_register.go"))

	removed, err := NewCleaner().CleanGeneratedFiles([]string{dir + "/..."})
	require.NoError(t, err)

	assert.Len(t, removed, 3)
	assert.NoFileExists(t, filepath.Join(dir, "svc", "deep", "zz_aot_register_components0.go"))
	assert.FileExists(t, filepath.Join(dir, "vendor", "lib", "zz_aot_register.go"))
	assert.FileExists(t, filepath.Join(dir, ".hidden", "zz_aot_register.go"))
}

func TestCleaner_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	removed, err := NewCleaner().CleanGeneratedFiles([]string{missing, missing + "/..."})
	require.NoError(t, err)
	assert.Empty(t, removed)
}
