package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/artifactpub/internal/config"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	helpers "git.home.luguber.info/inful/artifactpub/internal/testutil/testutils"
)

const buildScript = `#!/bin/sh
mkdir -p out
echo jar > out/app.jar
echo '<manifest/>' > out/manifest.xml
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParse_PublishIsDefaultCommand(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("artifactpub"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"-r", "group/app", "-c", "group/dist", "-t", "v1", "--ext", ".jar,.war", "--cleanup", "--build-timeout", "2m"})
	require.NoError(t, err)
	assert.Equal(t, "publish", kctx.Command())

	p := cli.Publish
	assert.Equal(t, "group/app", p.Repo)
	assert.Equal(t, "group/dist", p.CommitRepo)
	assert.Equal(t, "v1", p.Tag)
	assert.Equal(t, []string{".jar", ".war"}, p.Ext)
	assert.True(t, p.Cleanup)
	assert.Equal(t, 2*time.Minute, p.BuildTimeout)
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, `source:
  url: group/app
  branch: release
distribution:
  url: group/dist
  commit_message: from file
harvest:
  collision: fail
`)

	cmd := &PublishCmd{
		Config:    path,
		Branch:    "main",
		BuildCmd:  "make dist",
		Collision: "NAMESPACE",
	}
	cfg, err := cmd.resolveConfig()
	require.NoError(t, err)

	assert.Equal(t, "group/app", cfg.Source.URL)
	assert.Equal(t, "main", cfg.Source.Branch)
	assert.Equal(t, "from file", cfg.Distribution.CommitMessage)
	assert.Equal(t, []string{"sh", "-c", "make dist"}, cfg.Build.Command)
	assert.Equal(t, config.CollisionNamespace, cfg.Harvest.Collision)
	assert.Equal(t, config.DefaultExtensions(), cfg.Harvest.Extensions)
	assert.Equal(t, config.DefaultHost, cfg.Auth.Host)
}

func TestResolveConfig_KnownHostsSelectsPolicy(t *testing.T) {
	kh := filepath.Join(t.TempDir(), "known_hosts")
	writeFile(t, kh, "")

	cmd := &PublishCmd{Repo: "a/b", CommitRepo: "a/c", KnownHosts: []string{kh}}
	cfg, err := cmd.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, config.HostKeyKnownHosts, cfg.Auth.HostKeyPolicy)
	assert.Equal(t, []string{kh}, cfg.Auth.KnownHosts)
}

func TestResolveConfig_ValidationErrorsExitTwo(t *testing.T) {
	adapter := ferrors.NewCLIErrorAdapter(false, nil)

	cases := map[string]*PublishCmd{
		"missing repo":      {CommitRepo: "group/dist"},
		"missing dist repo": {Repo: "group/app"},
		"unknown collision": {Repo: "group/app", CommitRepo: "group/dist", Collision: "merge"},
		"unknown auth":      {Repo: "group/app", CommitRepo: "group/dist", Auth: "kerberos"},
		"bad tag":           {Repo: "group/app", CommitRepo: "group/dist", Tag: "v 1"},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cmd.resolveConfig()
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), "got %v", err)
			assert.Equal(t, 2, adapter.ExitCodeFor(err))
		})
	}
}

func TestResolveConfig_MissingFileIsConfigError(t *testing.T) {
	cmd := &PublishCmd{Config: filepath.Join(t.TempDir(), "absent.yaml")}
	_, err := cmd.resolveConfig()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

type publishFixture struct {
	cmd    *PublishCmd
	remote string
	out    *bytes.Buffer
}

func newPublishFixture(t *testing.T, script string) *publishFixture {
	t.Helper()
	src := filepath.Join(t.TempDir(), "app")
	helpers.InitRepo(t, src, "master", map[string]string{"build.sh": script})
	remote := helpers.SeedBareRemote(t, "master", map[string]string{"README.md": "dist"})

	out := &bytes.Buffer{}
	return &publishFixture{
		cmd: &PublishCmd{
			Repo:       src,
			CommitRepo: remote,
			BuildCmd:   "sh build.sh",
			Auth:       string(config.AuthTypeNone),
			WorkDir:    t.TempDir(),
			out:        out,
		},
		remote: remote,
		out:    out,
	}
}

func TestPublishCmd_RunPublishesAndWritesMetrics(t *testing.T) {
	f := newPublishFixture(t, buildScript)
	f.cmd.Tag = "v1"
	f.cmd.Cleanup = true
	f.cmd.MetricsFile = filepath.Join(t.TempDir(), "textfile", "artifactpub.prom")

	err := f.cmd.Run(&Global{Context: context.Background()}, &CLI{})
	require.NoError(t, err)

	head, ok := helpers.Ref(t, f.remote, plumbing.NewBranchReferenceName("master"))
	require.True(t, ok)
	tag, ok := helpers.Ref(t, f.remote, plumbing.NewTagReferenceName("v1"))
	require.True(t, ok)
	assert.Equal(t, head, tag)

	files := helpers.TreeFiles(t, f.remote, head)
	assert.Contains(t, files, "app.jar")
	assert.Contains(t, files, "manifest.xml")

	assert.Contains(t, f.out.String(), "Published 2 artifact(s)")
	assert.Contains(t, f.out.String(), "(tag v1)")

	helpers.NewFileAssertions(t, f.cmd.WorkDir).
		AssertNotExists(config.DefaultSourceDir).
		AssertNotExists(config.DefaultDistributionDir)

	data, err := os.ReadFile(f.cmd.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `artifactpub_run_outcomes_total{outcome="success"} 1`)
}

func TestPublishCmd_BuildFailureExitsOne(t *testing.T) {
	f := newPublishFixture(t, "echo 'compilation failed' >&2\nexit 1\n")

	err := f.cmd.Run(&Global{}, &CLI{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild), "got %v", err)
	assert.Equal(t, 1, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Empty(t, f.out.String())

	var stderr bytes.Buffer
	code := -1
	ferrors.NewCLIErrorAdapter(false, nil).WithOutput(&stderr, func(c int) { code = c }).HandleError(err)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "compilation failed")
}

func TestPublishCmd_SkipEmptyReportsNothingToPublish(t *testing.T) {
	f := newPublishFixture(t, "echo nothing to build\n")
	f.cmd.SkipEmpty = true

	require.NoError(t, f.cmd.Run(&Global{}, &CLI{}))
	assert.Contains(t, f.out.String(), "Nothing to publish")
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "warn")
	assert.Equal(t, "DEBUG", parseLogLevel(true).String())
	assert.Equal(t, "WARN", parseLogLevel(false).String())
}
