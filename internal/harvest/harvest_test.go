package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/artifactpub/internal/config"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func defaultHarvester(collision config.CollisionPolicy) *Harvester {
	return NewHarvester(config.HarvestConfig{
		Extensions: []string{".jar", ".xml"},
		DestDir:    ".",
		Collision:  collision,
	})
}

func TestMatches(t *testing.T) {
	h := defaultHarvester(config.CollisionOverwrite)
	assert.True(t, h.Matches("app.jar"))
	assert.True(t, h.Matches("manifest.xml"))
	assert.False(t, h.Matches("APP.JAR"), "matching is case-sensitive")
	assert.False(t, h.Matches("app.jar.sha1"))
	assert.False(t, h.Matches("readme.md"))
}

func TestHarvest_MovesMatchingFiles(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{
		"build/libs/app.jar":     "jar",
		"build/manifest.xml":     "<m/>",
		"src/Main.java":          "class Main {}",
		".git/objects/pack.jar":  "not an artifact",
		"build/reports/index.md": "report",
	})

	set, err := defaultHarvester(config.CollisionOverwrite).Harvest(src, dist)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "build/libs/app.jar", set[0].RelPath, "lexical traversal order")
	assert.Equal(t, "build/manifest.xml", set[1].RelPath)
	assert.ElementsMatch(t, []string{"app.jar", "manifest.xml"}, set.Names())

	assert.Equal(t, "jar", readFile(t, filepath.Join(dist, "app.jar")))
	assert.Equal(t, "<m/>", readFile(t, filepath.Join(dist, "manifest.xml")))
	_, err = os.Stat(filepath.Join(src, "build", "libs", "app.jar"))
	assert.True(t, os.IsNotExist(err), "artifact must be moved, not copied")
	_, err = os.Stat(filepath.Join(src, ".git", "objects", "pack.jar"))
	assert.NoError(t, err, ".git content is never harvested")
}

func TestHarvest_Idempotent(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"out/app.jar": "jar"})
	h := defaultHarvester(config.CollisionOverwrite)

	first, err := h.Harvest(src, dist)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := h.Harvest(src, dist)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestHarvest_Empty(t *testing.T) {
	set, err := defaultHarvester(config.CollisionOverwrite).Harvest(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestHarvest_CollisionOverwrite(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"a/out.jar": "from a", "b/out.jar": "from b"})

	set, err := defaultHarvester(config.CollisionOverwrite).Harvest(src, dist)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Equal(t, "from b", readFile(t, filepath.Join(dist, "out.jar")), "last in traversal order wins")
}

func TestHarvest_CollisionFail(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"a/out.jar": "from a", "b/out.jar": "from b"})

	_, err := defaultHarvester(config.CollisionFail).Harvest(src, dist)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHarvest))

	_, statErr := os.Stat(filepath.Join(src, "a", "out.jar"))
	assert.NoError(t, statErr, "nothing is moved when the plan fails")
	_, statErr = os.Stat(filepath.Join(dist, "out.jar"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHarvest_CollisionNamespace(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"a/out.jar": "from a", "b/out.jar": "from b", "top.xml": "t"})

	set, err := defaultHarvester(config.CollisionNamespace).Harvest(src, dist)
	require.NoError(t, err)
	assert.Equal(t, []string{"a__out.jar", "b__out.jar", "top.xml"}, set.Names())
	assert.Equal(t, "from a", readFile(t, filepath.Join(dist, "a__out.jar")))
	assert.Equal(t, "from b", readFile(t, filepath.Join(dist, "b__out.jar")))
}

func TestHarvest_CollisionNamespaceClashFails(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"a__b/x.jar": "first", "a/b__x.jar": "second"})

	_, err := defaultHarvester(config.CollisionNamespace).Harvest(src, dist)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHarvest))

	_, statErr := os.Stat(filepath.Join(dist, "a__b__x.jar"))
	assert.True(t, os.IsNotExist(statErr), "nothing is moved when namespaced names clash")
	assert.Equal(t, "first", readFile(t, filepath.Join(src, "a__b", "x.jar")))
	assert.Equal(t, "second", readFile(t, filepath.Join(src, "a", "b__x.jar")))
}

func TestHarvest_DestDir(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"build/app.jar": "jar"})

	h := NewHarvester(config.HarvestConfig{Extensions: []string{".jar"}, DestDir: "releases/latest"})
	set, err := h.Harvest(src, dist)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, filepath.Join(dist, "releases", "latest", "app.jar"), set[0].DestPath)
	assert.Equal(t, "jar", readFile(t, set[0].DestPath))
}

func TestHarvest_ReplacesExistingDestination(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"app.jar": "new"})
	writeFiles(t, dist, map[string]string{"app.jar": "old"})

	_, err := defaultHarvester(config.CollisionOverwrite).Harvest(src, dist)
	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, filepath.Join(dist, "app.jar")))
}

func TestHarvest_DestinationIsDirectory(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFiles(t, src, map[string]string{"app.jar": "jar"})
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "app.jar"), 0o750))

	_, err := defaultHarvester(config.CollisionOverwrite).Harvest(src, dist)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHarvest))
}

func TestHarvest_MissingSourceTree(t *testing.T) {
	_, err := defaultHarvester(config.CollisionOverwrite).Harvest(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHarvest))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jar")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o640))
	dst := filepath.Join(dir, "b.jar")

	require.NoError(t, copyFile(src, dst))
	assert.Equal(t, "payload", readFile(t, dst))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
