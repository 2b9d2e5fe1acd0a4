package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/artifactpub/internal/config"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/metrics"
	helpers "git.home.luguber.info/inful/artifactpub/internal/testutil/testutils"
)

const buildArtifacts = `#!/bin/sh
mkdir -p build/libs
echo jar > build/libs/app.jar
echo '<manifest/>' > build/manifest.xml
echo 'BUILD SUCCESSFUL'
`

type fixture struct {
	cfg    config.RunConfig
	remote string
	seed   plumbing.Hash
}

// newFixture creates a source repository whose build.sh is script and a
// distribution remote seeded with one commit.
func newFixture(t *testing.T, script string, remoteTags ...string) *fixture {
	t.Helper()

	src := filepath.Join(t.TempDir(), "app")
	helpers.InitRepo(t, src, "master", map[string]string{"build.sh": script})
	remote := helpers.SeedBareRemote(t, "master", map[string]string{"README.md": "dist"}, remoteTags...)
	seed, ok := helpers.Ref(t, remote, plumbing.NewBranchReferenceName("master"))
	require.True(t, ok)

	cfg := config.RunConfig{
		Source:       config.SourceConfig{URL: src},
		Distribution: config.DistributionConfig{URL: remote},
		Build:        config.BuildConfig{Command: []string{"sh", "build.sh"}},
		Auth:         config.AuthConfig{Type: config.AuthTypeNone},
		Workspace:    config.WorkspaceConfig{BaseDir: t.TempDir()},
	}
	config.ApplyDefaults(&cfg)
	require.NoError(t, config.Validate(&cfg))
	return &fixture{cfg: cfg, remote: remote, seed: seed}
}

func (f *fixture) remoteHead(t *testing.T) plumbing.Hash {
	t.Helper()
	h, ok := helpers.Ref(t, f.remote, plumbing.NewBranchReferenceName("master"))
	require.True(t, ok)
	return h
}

func TestRun_PublishesArtifactsAndTag(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.cfg.Distribution.Tag = "v1"

	outcome := New(f.cfg).Run(context.Background())
	require.NoError(t, outcome.Cause)
	assert.Equal(t, Success, outcome.Kind)
	assert.Equal(t, 0, outcome.ExitCode())
	assert.NotEmpty(t, outcome.RunID)
	assert.Len(t, outcome.Artifacts, 2)

	head := f.remoteHead(t)
	assert.NotEqual(t, f.seed, head)
	assert.Equal(t, head.String(), outcome.Commit)

	tag, ok := helpers.Ref(t, f.remote, plumbing.NewTagReferenceName("v1"))
	require.True(t, ok)
	assert.Equal(t, head, tag, "tag must resolve to the published commit")

	files := helpers.TreeFiles(t, f.remote, head)
	assert.Equal(t, []string{"README.md", "app.jar", "manifest.xml"}, helpers.SortedKeys(files))
	assert.Equal(t, "jar\n", files["app.jar"])

	for _, stage := range []StageName{StageAuthenticate, StageCheckout, StageBuild, StagePrepareDistribution, StageHarvest, StagePublish} {
		_, recorded := outcome.StageDurations[stage]
		assert.True(t, recorded, "missing duration for %s", stage)
	}
}

func TestRun_BuildFailureNeverTouchesDistribution(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\necho 'FAILURE: Build failed with an exception.' >&2\nexit 1\n")

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, BuildStageFailed, outcome.Kind)
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Equal(t, StageBuild, outcome.Stage)

	ce, ok := ferrors.AsClassified(outcome.Cause)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryBuild, ce.Category())
	stderr, _ := ce.Context().GetString("stderr")
	assert.Contains(t, stderr, "Build failed with an exception")

	_, err := os.Stat(f.cfg.DistributionPath())
	assert.True(t, os.IsNotExist(err), "distribution tree must never be cloned")
	assert.Equal(t, f.seed, f.remoteHead(t))
}

func TestRun_BuildCommandNotFound(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\n")
	f.cfg.Build.Command = []string{"./gradlew", "izpack"}

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, BuildStageFailed, outcome.Kind)
	assert.Equal(t, 1, outcome.ExitCode())
}

func TestRun_CleanupAfterPublishFailure(t *testing.T) {
	f := newFixture(t, buildArtifacts, "v1")
	f.cfg.Distribution.Tag = "v1"
	f.cfg.Workspace.Cleanup = true

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, PublishStageFailed, outcome.Kind)
	assert.Equal(t, 1, outcome.ExitCode())
	assert.True(t, ferrors.HasCategory(outcome.Cause, ferrors.CategoryPublish))
	assert.NoError(t, outcome.CleanupErr)

	helpers.NewFileAssertions(t, f.cfg.Workspace.BaseDir).
		AssertNotExists(f.cfg.Workspace.SourceDir).
		AssertNotExists(f.cfg.Workspace.DistributionDir)
	assert.Equal(t, f.seed, f.remoteHead(t), "nothing is pushed when tagging fails")
}

func TestRun_CleanupAfterSuccess(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.cfg.Workspace.Cleanup = true

	outcome := New(f.cfg).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	helpers.NewFileAssertions(t, f.cfg.Workspace.BaseDir).
		AssertNotExists(f.cfg.Workspace.SourceDir).
		AssertNotExists(f.cfg.Workspace.DistributionDir)
}

func TestRun_TreesKeptWithoutCleanup(t *testing.T) {
	f := newFixture(t, buildArtifacts)

	outcome := New(f.cfg).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	helpers.NewFileAssertions(t, f.cfg.Workspace.BaseDir).
		AssertFileExists(filepath.Join(f.cfg.Workspace.SourceDir, "build.sh")).
		AssertFileExists(filepath.Join(f.cfg.Workspace.DistributionDir, "app.jar"))
}

func TestRun_CheckoutFailures(t *testing.T) {
	t.Run("missing branch", func(t *testing.T) {
		f := newFixture(t, buildArtifacts)
		f.cfg.Source.Branch = "release"

		outcome := New(f.cfg).Run(context.Background())
		assert.Equal(t, SourceStageFailed, outcome.Kind)
		assert.Equal(t, StageCheckout, outcome.Stage)
		assert.True(t, ferrors.HasCategory(outcome.Cause, ferrors.CategoryCheckout))
	})

	t.Run("occupied target survives cleanup", func(t *testing.T) {
		f := newFixture(t, buildArtifacts)
		f.cfg.Workspace.Cleanup = true
		occupied := f.cfg.SourcePath()
		require.NoError(t, os.MkdirAll(occupied, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(occupied, "notes.txt"), []byte("mine"), 0o600))

		outcome := New(f.cfg).Run(context.Background())
		assert.Equal(t, SourceStageFailed, outcome.Kind)
		helpers.NewFileAssertions(t, occupied).AssertFileContains("notes.txt", "mine")
	})
}

func TestRun_AuthenticationFailureIsSourceFailure(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.cfg.Auth = config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: filepath.Join(t.TempDir(), "missing_key"), Host: "gitlab.com", HostKeyPolicy: config.HostKeyInsecure}

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, SourceStageFailed, outcome.Kind)
	assert.Equal(t, StageAuthenticate, outcome.Stage)
	assert.True(t, ferrors.HasCategory(outcome.Cause, ferrors.CategoryAuth))
}

func TestRun_HarvestCollisionFails(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\nmkdir -p a b\necho a > a/out.jar\necho b > b/out.jar\n")
	f.cfg.Harvest.Collision = config.CollisionFail

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, HarvestStageFailed, outcome.Kind)
	assert.Equal(t, f.seed, f.remoteHead(t))
}

func TestRun_CollisionOverwriteKeepsLast(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\nmkdir -p a b\necho a > a/out.jar\necho b > b/out.jar\n")

	outcome := New(f.cfg).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	files := helpers.TreeFiles(t, f.remote, f.remoteHead(t))
	assert.Equal(t, "b\n", files["out.jar"])
}

func TestRun_EmptyCommitPolicy(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t, "#!/bin/sh\necho nothing to build\n")

		outcome := New(f.cfg).Run(context.Background())
		require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
		assert.Empty(t, outcome.Artifacts)
		assert.False(t, outcome.Skipped)
		assert.NotEqual(t, f.seed, f.remoteHead(t), "an empty commit is pushed")
	})

	t.Run("skip empty", func(t *testing.T) {
		f := newFixture(t, "#!/bin/sh\necho nothing to build\n")
		f.cfg.Distribution.SkipEmpty = true
		f.cfg.Distribution.Tag = "v2"

		outcome := New(f.cfg).Run(context.Background())
		require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
		assert.True(t, outcome.Skipped)
		assert.Empty(t, outcome.Commit)
		assert.Equal(t, f.seed, f.remoteHead(t))
		_, tagged := helpers.Ref(t, f.remote, plumbing.NewTagReferenceName("v2"))
		assert.False(t, tagged)
	})
}

func TestRun_EmptyDistributionRemote(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.remote = helpers.NewBareRemote(t, "master")
	f.cfg.Distribution.URL = f.remote

	outcome := New(f.cfg).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	files := helpers.TreeFiles(t, f.remote, f.remoteHead(t))
	assert.Equal(t, []string{"app.jar", "manifest.xml"}, helpers.SortedKeys(files))
}

func TestRun_DestDir(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.cfg.Harvest.DestDir = "releases"

	outcome := New(f.cfg).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	files := helpers.TreeFiles(t, f.remote, f.remoteHead(t))
	assert.Contains(t, files, "releases/app.jar")
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := New(f.cfg).Run(ctx)
	assert.Equal(t, SourceStageFailed, outcome.Kind)
	assert.Equal(t, StageAuthenticate, outcome.Stage)
	assert.ErrorIs(t, outcome.Cause, context.Canceled)
}

func TestRun_BuildTimeout(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\nexec sleep 5\n")
	f.cfg.Timeouts.Build = 100 * time.Millisecond

	outcome := New(f.cfg).Run(context.Background())
	assert.Equal(t, BuildStageFailed, outcome.Kind)
}

type countingRecorder struct {
	metrics.NoopRecorder
	results  map[string]metrics.ResultLabel
	outcomes []string
	arts     int
}

func (r *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.results[stage] = result
}
func (r *countingRecorder) IncRunOutcome(outcome string) { r.outcomes = append(r.outcomes, outcome) }
func (r *countingRecorder) SetArtifactsPublished(n int)   { r.arts = n }

func TestRun_RecordsMetrics(t *testing.T) {
	f := newFixture(t, buildArtifacts)
	f.cfg.Workspace.Cleanup = true
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}

	outcome := New(f.cfg).WithRecorder(rec).Run(context.Background())
	require.Equal(t, Success, outcome.Kind, "cause: %v", outcome.Cause)
	assert.Equal(t, []string{"success"}, rec.outcomes)
	assert.Equal(t, 2, rec.arts)
	assert.Equal(t, metrics.ResultSuccess, rec.results[string(StagePublish)])
	assert.Equal(t, metrics.ResultSuccess, rec.results[string(StageCleanup)])
}

func TestKindForStage(t *testing.T) {
	assert.Equal(t, SourceStageFailed, KindForStage(StageAuthenticate))
	assert.Equal(t, SourceStageFailed, KindForStage(StageCheckout))
	assert.Equal(t, BuildStageFailed, KindForStage(StageBuild))
	assert.Equal(t, PublishStageFailed, KindForStage(StagePrepareDistribution))
	assert.Equal(t, HarvestStageFailed, KindForStage(StageHarvest))
	assert.Equal(t, PublishStageFailed, KindForStage(StagePublish))
}

func TestOutcome_ExitCode(t *testing.T) {
	for kind, want := range map[OutcomeKind]int{
		Success:            0,
		SourceStageFailed:  1,
		BuildStageFailed:   1,
		HarvestStageFailed: 1,
		PublishStageFailed: 1,
	} {
		assert.Equal(t, want, (&Outcome{Kind: kind}).ExitCode(), kind.String())
	}
	var nilOutcome *Outcome
	assert.Equal(t, 0, nilOutcome.ExitCode())
}
