package harvest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/artifactpub/internal/config"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
)

// NamespaceSeparator replaces path separators in namespaced destination names.
const NamespaceSeparator = "__"

// Artifact is one file selected for publication.
type Artifact struct {
	SourcePath string // absolute or base-relative path inside the source tree
	RelPath    string // path relative to the source tree root, slash separated
	DestPath   string // target path inside the distribution tree; set by Plan
}

// ArtifactSet is the ordered result of a harvest, in traversal order.
type ArtifactSet []Artifact

// Names returns the destination base names in order.
func (s ArtifactSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, a := range s {
		names = append(names, filepath.Base(a.DestPath))
	}
	return names
}

// Harvester selects files by name suffix and moves them.
type Harvester struct {
	extensions []string
	destDir    string
	collision  config.CollisionPolicy
}

// NewHarvester creates a harvester from the harvest configuration.
func NewHarvester(cfg config.HarvestConfig) *Harvester {
	collision := config.NormalizeCollisionPolicy(string(cfg.Collision))
	if collision == "" {
		collision = config.CollisionOverwrite
	}
	return &Harvester{
		extensions: cfg.Extensions,
		destDir:    filepath.Clean(cfg.DestDir),
		collision:  collision,
	}
}

// Matches reports whether name ends with one of the configured extensions.
// Matching is case-sensitive.
func (h *Harvester) Matches(name string) bool {
	for _, ext := range h.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Discover walks srcRoot in lexical order, skipping .git directories, and
// returns every matching file. An empty set is not an error.
func (h *Harvester) Discover(srcRoot string) (ArtifactSet, error) {
	var set ArtifactSet
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !h.Matches(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		set = append(set, Artifact{SourcePath: path, RelPath: filepath.ToSlash(rel)})
		slog.Debug("Discovered artifact", logfields.Path(rel))
		return nil
	})
	if err != nil {
		return nil, ferrors.HarvestError("failed to scan source tree").
			WithCause(err).
			WithContext("path", srcRoot).
			Build()
	}
	return set, nil
}

// Plan assigns destination paths under distRoot according to the collision
// policy. With CollisionFail, or a namespaced name that still clashes, a
// repeated destination name is an error and nothing has been moved yet.
func (h *Harvester) Plan(set ArtifactSet, distRoot string) (ArtifactSet, error) {
	planned := make(ArtifactSet, 0, len(set))
	seen := make(map[string]string, len(set))
	for _, a := range set {
		name := filepath.Base(a.RelPath)
		if h.collision == config.CollisionNamespace {
			name = strings.ReplaceAll(a.RelPath, "/", NamespaceSeparator)
		}
		if prev, dup := seen[name]; dup {
			switch h.collision {
			case config.CollisionFail, config.CollisionNamespace:
				return nil, ferrors.HarvestError(fmt.Sprintf("artifacts %s and %s both map to %s", prev, a.RelPath, name)).
					WithContext("path", a.RelPath).
					Build()
			default:
				slog.Warn("Artifact overwrites an earlier one with the same name",
					logfields.Path(a.RelPath), slog.String("previous", prev))
			}
		}
		seen[name] = a.RelPath
		a.DestPath = filepath.Join(distRoot, h.destDir, name)
		planned = append(planned, a)
	}
	return planned, nil
}

// Harvest discovers artifacts under srcRoot and moves them into distRoot.
// Moved files no longer exist in the source tree, so a second harvest over
// the same tree yields an empty set.
func (h *Harvester) Harvest(srcRoot, distRoot string) (ArtifactSet, error) {
	set, err := h.Discover(srcRoot)
	if err != nil {
		return nil, err
	}
	planned, err := h.Plan(set, distRoot)
	if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		slog.Info("No artifacts found", logfields.Path(srcRoot))
		return planned, nil
	}

	if err := os.MkdirAll(filepath.Join(distRoot, h.destDir), 0o750); err != nil {
		return nil, ferrors.HarvestError("failed to create artifact directory").
			WithCause(err).
			WithContext("path", filepath.Join(distRoot, h.destDir)).
			Build()
	}

	for _, a := range planned {
		if err := moveFile(a.SourcePath, a.DestPath); err != nil {
			return nil, ferrors.HarvestError(fmt.Sprintf("failed to move %s", a.RelPath)).
				WithCause(err).
				WithContext("path", a.SourcePath).
				Build()
		}
		slog.Debug("Moved artifact", logfields.Path(a.RelPath), slog.String("dest", a.DestPath))
	}

	slog.Info("Artifacts harvested", logfields.Artifacts(len(planned)))
	return planned, nil
}

var errIsDir = errors.New("destination is a directory")

func moveFile(src, dst string) error {
	if info, err := os.Lstat(dst); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", dst, errIsDir)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
