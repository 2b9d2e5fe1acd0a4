package helpers

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature is the author used for fixture commits.
func Signature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()}
}

// InitRepo creates a non-bare repository at dir whose default branch is branch
// and commits files (path → content) to it. Returns the repository.
func InitRepo(t *testing.T, dir, branch string, files map[string]string) *git.Repository {
	t.Helper()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
	})
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	CommitFiles(t, repo, files, "Initial test commit")
	return repo
}

// CommitFiles writes files into the worktree of repo and commits all changes.
func CommitFiles(t *testing.T, repo *git.Repository, files map[string]string, msg string) plumbing.Hash {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	root := w.Filesystem.Root()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		mode := os.FileMode(0o600)
		if filepath.Ext(name) == ".sh" {
			mode = 0o700
		}
		if err := os.WriteFile(full, []byte(content), mode); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("failed to add files: %v", err)
	}
	hash, err := w.Commit(msg, &git.CommitOptions{Author: Signature(), AllowEmptyCommits: true})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

// NewBareRemote creates an empty bare repository whose HEAD names branch.
func NewBareRemote(t *testing.T, branch string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")
	_, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		Bare:        true,
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
	})
	if err != nil {
		t.Fatalf("failed to initialize bare repo: %v", err)
	}
	return dir
}

// SeedBareRemote creates a bare repository holding one commit with files on
// branch, plus lightweight tags pointing at that commit.
func SeedBareRemote(t *testing.T, branch string, files map[string]string, tags ...string) string {
	t.Helper()

	work := filepath.Join(t.TempDir(), "seed")
	repo := InitRepo(t, work, branch, files)
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	for _, tag := range tags {
		if _, err := repo.CreateTag(tag, head.Hash(), nil); err != nil {
			t.Fatalf("failed to create tag %s: %v", tag, err)
		}
	}

	dir := filepath.Join(t.TempDir(), "remote.git")
	if _, err := git.PlainClone(dir, true, &git.CloneOptions{URL: work, Mirror: true}); err != nil {
		t.Fatalf("failed to create bare remote: %v", err)
	}
	return dir
}

// Ref resolves name in the repository at path. ok is false when it does not exist.
func Ref(t *testing.T, path string, name plumbing.ReferenceName) (plumbing.Hash, bool) {
	t.Helper()

	repo, err := git.PlainOpen(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	ref, err := repo.Reference(name, true)
	if err != nil {
		return plumbing.ZeroHash, false
	}
	return ref.Hash(), true
}

// TreeFiles returns file name → content for commit hash in the repository at path.
func TreeFiles(t *testing.T, path string, hash plumbing.Hash) map[string]string {
	t.Helper()

	repo, err := git.PlainOpen(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		t.Fatalf("failed to load commit %s: %v", hash, err)
	}
	files, err := commit.Files()
	if err != nil {
		t.Fatalf("failed to list files: %v", err)
	}
	out := make(map[string]string)
	err = files.ForEach(func(f *object.File) error {
		content, cerr := f.Contents()
		if cerr != nil {
			return cerr
		}
		out[f.Name] = content
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read files: %v", err)
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
