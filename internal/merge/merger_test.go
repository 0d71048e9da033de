package merge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccmerge/internal/archive"
	"git.home.luguber.info/inful/doccmerge/internal/compiler"
	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/git"
	"git.home.luguber.info/inful/doccmerge/internal/navindex"
	"git.home.luguber.info/inful/doccmerge/internal/notify"
	helpers "git.home.luguber.info/inful/doccmerge/internal/testutil/testutils"
)

// fakeCompiler writes a fixture archive for every --target it is asked to build.
type fakeCompiler struct {
	fixtures map[string]helpers.ArchiveFixture
	fail     map[string]error
	built    []string
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func (f *fakeCompiler) Run(_ context.Context, c compiler.Command) error {
	out, target := argValue(c.Args, "--output-path"), argValue(c.Args, "--target")
	f.built = append(f.built, target)
	if err := f.fail[target]; err != nil {
		return err
	}
	fx, ok := f.fixtures[target]
	if !ok {
		fx = helpers.ArchiveFixture{Module: target}
	}
	return helpers.WriteArchive(out, fx)
}

type recordingPublisher struct{ events []notify.Event }

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.events = append(p.events, e)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

func lookPath(name string) (string, error) { return name, nil }

func newTestMerger(fc *fakeCompiler, extra ...Option) *Merger {
	opts := append([]Option{WithBuilderOptions(compiler.WithRunner(fc), compiler.WithLookPath(lookPath))}, extra...)
	m := New(Options{}, opts...)
	m.newRunID = func() string { return "test-run" }
	return m
}

func appUtilsCompiler() *fakeCompiler {
	return &fakeCompiler{fixtures: map[string]helpers.ArchiveFixture{
		"App":   {Module: "App", Index: helpers.DefaultIndex("App", "Intro")},
		"Utils": {Module: "Utils", Index: helpers.DefaultIndex("Utils", "Array")},
	}}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	require.NoError(t, filepath.Walk(root, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out = append(out, rel)
		return nil
	}))
	sort.Strings(out)
	return out
}

func TestRunMergesAppAndUtils(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	fc := appUtilsCompiler()
	pub := &recordingPublisher{}
	var progress bytes.Buffer
	m := newTestMerger(fc, WithPublisher(pub), WithProgress(&progress))

	report, err := m.Run(context.Background(), Request{Main: "App", Targets: []string{"Utils"}, OutputDir: out})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, "test-run", report.RunID)
	assert.Equal(t, []string{"App", "Utils"}, report.Modules)
	assert.Equal(t, []string{"App", "Utils"}, report.Built())
	assert.Empty(t, report.Skipped())
	assert.Equal(t, []string{"App", "Utils"}, fc.built)
	for _, st := range []StageName{StagePrepareStaging, StageBuildArchives, StagePromoteAssets, StageMergeContent, StageMergeIndex, StageCleanupStaging} {
		assert.Equal(t, StageResultSuccess, report.StageResults[st], st)
	}

	fa := helpers.NewFileAssertions(t, out)
	fa.AssertFileContains("favicon.ico", "App asset").
		AssertFileContains("index.html", "App asset").
		AssertDirExists("css").
		AssertDirExists("js").
		AssertDirExists("img").
		AssertFileExists("data/documentation/app.json").
		AssertFileExists("data/documentation/utils.json").
		AssertDirExists("data/documentation/app").
		AssertDirExists("data/documentation/utils").
		AssertDirExists("documentation/app").
		AssertDirExists("documentation/utils").
		AssertDirExists("images/utils").
		AssertDirExists("downloads").
		AssertDirExists("videos").
		AssertNotExists("cache")

	idx, err := navindex.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"App", "Utils"}, idx.IncludedArchiveIdentifiers)
	assert.Equal(t, []string{"swift"}, idx.Languages())

	swift := idx.InterfaceLanguages["swift"]
	require.Len(t, swift, 2)
	assert.Equal(t, "Utils", swift[0].Title)
	require.Len(t, swift[0].Children, 2)
	assert.Equal(t, navindex.Node{Title: "Back to App", Type: navindex.TypeModule, Path: "../app"}, swift[0].Children[0])
	assert.Equal(t, "Array", swift[0].Children[1].Title)
	assert.Equal(t, "App", swift[1].Title)
	assert.Equal(t, []navindex.Node{{Title: "Utils", Type: navindex.TypeModule, Path: "../utils"}}, swift[1].Children)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "success", pub.events[0].Outcome)
	assert.Equal(t, []string{"App", "Utils"}, pub.events[0].Modules)

	p := progress.String()
	assert.Contains(t, p, "Generating documentation for 'App'...")
	assert.Contains(t, p, "Generating documentation for 'Utils'...")
	assert.Contains(t, p, "Generated merged documentation archive at '"+report.OutputDir+"'")
}

func TestRunIsIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	req := Request{Main: "App", Targets: []string{"Utils"}, OutputDir: out}

	_, err := newTestMerger(appUtilsCompiler()).Run(context.Background(), req)
	require.NoError(t, err)
	firstTree := listTree(t, out)
	firstIndex, err := os.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.txt"), []byte("old"), 0o644))

	_, err = newTestMerger(appUtilsCompiler()).Run(context.Background(), req)
	require.NoError(t, err)
	secondIndex, err := os.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)

	assert.Equal(t, firstTree, listTree(t, out))
	assert.Equal(t, string(firstIndex), string(secondIndex))
}

func TestRunMissingOptionalContent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	fc := &fakeCompiler{fixtures: map[string]helpers.ArchiveFixture{
		"App":   {Module: "App", Content: []string{helpers.FixtureData, helpers.FixtureDataFile, helpers.FixtureDocumentation, helpers.FixtureDownloads}},
		"Utils": {Module: "Utils", Content: []string{helpers.FixtureDataFile, helpers.FixtureDocumentation}},
	}}

	report, err := newTestMerger(fc).Run(context.Background(), Request{Main: "App", Targets: []string{"Utils"}, OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	helpers.NewFileAssertions(t, out).
		AssertDirExists("downloads/app").
		AssertNotExists("downloads/utils").
		AssertNotExists("data/documentation/utils").
		AssertFileExists("data/documentation/utils.json")

	require.Len(t, report.Content.Modules, 2)
	assert.Contains(t, report.Content.Modules[1].Missing, archive.KindDownloads)
	assert.Contains(t, report.Content.Modules[1].Missing, archive.KindData)
}

func TestRunSecondaryWithoutDocumentationIsSkipped(t *testing.T) {
	graphs := t.TempDir()
	for _, name := range []string{"App", "Utils"} {
		require.NoError(t, os.MkdirAll(filepath.Join(graphs, name), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(graphs, name, name+".symbols.json"), []byte("{}"), 0o644))
	}
	out := filepath.Join(t.TempDir(), "site")
	fc := appUtilsCompiler()
	m := newTestMerger(fc, WithBuilderOptions(compiler.WithSymbolGraphs(
		compiler.DirectorySymbolGraphProvider{Root: graphs, Pattern: "{module}"},
		compiler.DirCatalogLocator{Root: t.TempDir()},
	)))

	report, err := m.Run(context.Background(), Request{Main: "App", Targets: []string{"Empty", "Utils"}, OutputDir: out})
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, []string{"Empty"}, report.Skipped())
	assert.Equal(t, []string{"App", "Utils"}, fc.built)
	assert.Equal(t, StageErrorWarning, report.StageErrorKinds[StageBuildArchives])

	idx, err := navindex.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"App", "Utils"}, idx.IncludedArchiveIdentifiers)
	helpers.NewFileAssertions(t, out).AssertNotExists("documentation/empty")
}

func TestRunSoleModuleWithoutDocumentationFails(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	fc := appUtilsCompiler()
	m := newTestMerger(fc, WithBuilderOptions(compiler.WithSymbolGraphs(
		compiler.DirectorySymbolGraphProvider{Root: t.TempDir(), Pattern: "{module}"},
		compiler.DirCatalogLocator{Root: t.TempDir()},
	)))

	report, err := m.Run(context.Background(), Request{Main: "App", OutputDir: out})
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrNothingToDocument)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Empty(t, fc.built)
	helpers.NewFileAssertions(t, out).AssertNotExists("index/index.json")
}

func TestRunMainWithoutDocumentationFailsInMultiModuleRun(t *testing.T) {
	graphs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(graphs, "Utils"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(graphs, "Utils", "Utils.symbols.json"), []byte("{}"), 0o644))
	m := newTestMerger(appUtilsCompiler(), WithBuilderOptions(compiler.WithSymbolGraphs(
		compiler.DirectorySymbolGraphProvider{Root: graphs, Pattern: "{module}"}, nil,
	)))

	_, err := m.Run(context.Background(), Request{Main: "App", Targets: []string{"Utils"}, OutputDir: filepath.Join(t.TempDir(), "site")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMainModuleSkipped)
}

func TestRunCompilerFailureKeepsStaging(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	fc := appUtilsCompiler()
	fc.fail = map[string]error{"Utils": &compiler.ExitError{Code: 1, Status: "exit status 1"}}

	report, err := newTestMerger(fc).Run(context.Background(), Request{Main: "App", Targets: []string{"Utils"}, OutputDir: out})
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrCompilerFailed)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBuildArchives, se.Stage)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NotContains(t, report.StageResults, StageMergeIndex)

	helpers.NewFileAssertions(t, out).
		AssertDirExists("cache/App").
		AssertNotExists("index/index.json")

	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRunAtomicKeepsPreviousOutputOnFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	req := Request{Main: "App", Targets: []string{"Utils"}, OutputDir: out, Atomic: true}

	report, err := newTestMerger(appUtilsCompiler()).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, out, report.OutputDir)
	assert.Equal(t, StageResultSuccess, report.StageResults[StagePublishOutput])
	helpers.NewFileAssertions(t, out).
		AssertFileContains("index.html", "App asset").
		AssertFileContains("index/index.json", "Back to App").
		AssertNotExists("cache")
	_, err = os.Stat(out + ".next")
	assert.True(t, os.IsNotExist(err), "next directory must be gone after publish")
	before, err := os.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)

	fc := appUtilsCompiler()
	fc.fail = map[string]error{"Utils": &compiler.ExitError{Code: 1, Status: "exit status 1"}}
	report, err = newTestMerger(fc).Run(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NotContains(t, report.StageResults, StagePublishOutput)

	after, err := os.ReadFile(filepath.Join(out, "index", "index.json"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	helpers.NewFileAssertions(t, out).AssertFileContains("index.html", "App asset")
	helpers.NewFileAssertions(t, out+".next").AssertDirExists("cache/App")
}

func TestRunMissingSharedAsset(t *testing.T) {
	fc := &fakeCompiler{fixtures: map[string]helpers.ArchiveFixture{
		"App": {Module: "App", OmitAssets: []string{"favicon.svg"}},
	}}

	_, err := newTestMerger(fc).Run(context.Background(), Request{Main: "App", OutputDir: filepath.Join(t.TempDir(), "site")})
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrAssetMissing)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestRunCorruptIndex(t *testing.T) {
	fc := &fakeCompiler{fixtures: map[string]helpers.ArchiveFixture{
		"App":   {Module: "App"},
		"Utils": {Module: "Utils", Index: "{not json"},
	}}

	report, err := newTestMerger(fc).Run(context.Background(), Request{Main: "App", Targets: []string{"Utils"}, OutputDir: filepath.Join(t.TempDir(), "site")})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryIndex))
	assert.Equal(t, StageErrorFatal, report.StageErrorKinds[StageMergeIndex])
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		cat  ferrors.ErrorCategory
	}{
		{"missing main", Request{OutputDir: "out"}, ferrors.CategoryValidation},
		{"duplicate target", Request{Main: "App", Targets: []string{"app"}, OutputDir: "out"}, ferrors.CategoryValidation},
		{"missing output", Request{Main: "App"}, ferrors.CategoryConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := appUtilsCompiler()
			report, err := newTestMerger(fc).Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, ferrors.HasCategory(err, tt.cat))
			assert.Empty(t, fc.built)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestMerger(appUtilsCompiler()).Run(ctx, Request{Main: "App", OutputDir: filepath.Join(t.TempDir(), "site")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, StageResultCanceled, report.StageResults[StagePrepareStaging])
}

func TestRunPassThroughAndRevision(t *testing.T) {
	var seen []string
	runner := runnerFunc(func(_ context.Context, c compiler.Command) error {
		seen = c.Args
		return helpers.WriteArchive(argValue(c.Args, "--output-path"), helpers.ArchiveFixture{Module: "App"})
	})
	m := New(Options{Compiler: compiler.Config{Command: []string{"docc"}, PassThrough: []string{"--a"}}, SourceDir: "/src"},
		WithBuilderOptions(compiler.WithRunner(runner), compiler.WithLookPath(lookPath)))
	m.sourceRevFn = func(dir string) (*git.Revision, error) {
		assert.Equal(t, "/src", dir)
		return &git.Revision{Commit: "0123456789abcdef", Branch: "main"}, nil
	}

	report, err := m.Run(context.Background(), Request{Main: "App", OutputDir: filepath.Join(t.TempDir(), "site"), PassThrough: []string{"--b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"--a", "--b"}, seen[len(seen)-2:])
	require.NotNil(t, report.Revision)
	assert.Equal(t, "main@0123456789ab", report.Revision.String())
}

type runnerFunc func(ctx context.Context, c compiler.Command) error

func (f runnerFunc) Run(ctx context.Context, c compiler.Command) error { return f(ctx, c) }

func TestClassifyStageError(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, classifyStageError(ctx, StageMergeContent, nil))

	warn := ferrors.FileSystemError("partial").Warning().Build()
	assert.Equal(t, StageErrorWarning, classifyStageError(ctx, StageMergeContent, warn).Kind)

	fatal := ferrors.IndexError("broken").Build()
	assert.Equal(t, StageErrorFatal, classifyStageError(ctx, StageMergeIndex, fatal).Kind)

	assert.Equal(t, StageErrorCanceled, classifyStageError(ctx, StageBuildArchives, context.Canceled).Kind)

	existing := newWarnStageError(StageMergeContent, errors.New("x"))
	assert.Same(t, existing, classifyStageError(ctx, StageMergeIndex, existing))
	assert.True(t, strings.HasPrefix(existing.Error(), "warning stage merge_content"))
}
