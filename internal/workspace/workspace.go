package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
)

// DefaultStagingDir is the staging directory name used when none is configured.
const DefaultStagingDir = "cache"

// Top-level directories of the merged archive.
const (
	DirData          = "data"
	DirDocumentation = "documentation"
	DirDownloads     = "downloads"
	DirImages        = "images"
	DirIndex         = "index"
	DirVideos        = "videos"

	IndexFile = "index.json"
)

// SkeletonDirs lists the directories created in the output root before merging.
var SkeletonDirs = []string{
	filepath.Join(DirData, DirDocumentation),
	DirDocumentation,
	DirDownloads,
	DirImages,
	DirIndex,
	DirVideos,
}

// Layout resolves every path used during a run.
type Layout struct {
	outputRoot  string
	stagingRoot string
}

// NewLayout builds a layout for outputRoot. A relative stagingDir is resolved
// inside the output root; an empty one uses DefaultStagingDir.
func NewLayout(outputRoot, stagingDir string) (*Layout, error) {
	if outputRoot == "" {
		return nil, ferrors.ConfigError("please specify the output directory with --output-directory").Build()
	}
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").
			Fatal().
			WithContext("path", outputRoot).
			Build()
	}
	if abs == filepath.Dir(abs) {
		return nil, ferrors.ConfigError("refusing to use the filesystem root as output directory").
			WithContext("path", abs).
			Build()
	}
	if stagingDir == "" {
		stagingDir = DefaultStagingDir
	}
	staging := stagingDir
	if !filepath.IsAbs(staging) {
		staging = filepath.Join(abs, staging)
	}
	staging = filepath.Clean(staging)
	if staging == abs {
		return nil, ferrors.ConfigError("staging directory must differ from the output directory").
			WithContext("path", staging).
			Build()
	}
	return &Layout{outputRoot: abs, stagingRoot: staging}, nil
}

// OutputRoot is the absolute merged archive root.
func (l *Layout) OutputRoot() string { return l.outputRoot }

// StagingRoot is the absolute staging directory.
func (l *Layout) StagingRoot() string { return l.stagingRoot }

// ModuleStaging is where the compiler writes the archive for the named module.
func (l *Layout) ModuleStaging(name string) string {
	return filepath.Join(l.stagingRoot, name)
}

// ModuleIndexPath is the navigation index of a staged module archive.
func (l *Layout) ModuleIndexPath(name string) string {
	return filepath.Join(l.ModuleStaging(name), DirIndex, IndexFile)
}

// IndexPath is the navigation index of the merged archive.
func (l *Layout) IndexPath() string {
	return filepath.Join(l.outputRoot, DirIndex, IndexFile)
}

// OutputPath joins parts onto the output root.
func (l *Layout) OutputPath(parts ...string) string {
	return filepath.Join(append([]string{l.outputRoot}, parts...)...)
}

// Prepare removes any previous output and staging directories, then creates a
// fresh staging directory and the merged archive skeleton.
func (l *Layout) Prepare() error {
	for _, dir := range []string{l.outputRoot, l.stagingRoot} {
		if err := os.RemoveAll(dir); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove previous output").
				Fatal().
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.MkdirAll(l.stagingRoot, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create staging directory").
			Fatal().
			WithContext("path", l.stagingRoot).
			Build()
	}
	for _, dir := range SkeletonDirs {
		p := filepath.Join(l.outputRoot, dir)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
				Fatal().
				WithContext("path", p).
				Build()
		}
	}
	slog.Debug("Prepared staging area", logfields.Path(l.stagingRoot))
	return nil
}

// Cleanup removes the staging directory.
func (l *Layout) Cleanup() error {
	if err := os.RemoveAll(l.stagingRoot); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove staging directory").
			Fatal().
			WithContext("path", l.stagingRoot).
			Build()
	}
	slog.Debug("Removed staging area", logfields.Path(l.stagingRoot))
	return nil
}

// Sibling directory suffixes used by Publish.
const (
	NextSuffix = ".next"
	PrevSuffix = ".prev"
)

// NextDir is the sibling directory a run builds into before Publish swaps it in.
func NextDir(outputRoot string) string {
	return filepath.Clean(outputRoot) + NextSuffix
}

// PrevDir is where Publish moves the previous output while swapping.
func PrevDir(outputRoot string) string {
	return filepath.Clean(outputRoot) + PrevSuffix
}

// Publish replaces final with next. An existing final is moved aside first and
// removed once next is in place, so final is never left partially written.
func Publish(next, final string) error {
	prev := PrevDir(final)
	if err := os.RemoveAll(prev); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove stale previous output").
			Fatal().
			WithContext("path", prev).
			Build()
	}
	hadFinal := true
	if err := os.Rename(final, prev); err != nil {
		if !os.IsNotExist(err) {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "move previous output aside").
				Fatal().
				WithContext("path", final).
				Build()
		}
		hadFinal = false
	}
	if err := os.Rename(next, final); err != nil {
		if hadFinal {
			_ = os.Rename(prev, final)
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "publish merged output").
			Fatal().
			WithContext("path", final).
			Build()
	}
	if hadFinal {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Debug("Published merged output", logfields.Path(final))
	return nil
}
