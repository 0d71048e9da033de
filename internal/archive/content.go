package archive

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/module"
)

// ContentKind names one of the namespaced subtrees of a module archive.
type ContentKind string

const (
	KindData          ContentKind = "data"
	KindDataFile      ContentKind = "data_file"
	KindDocumentation ContentKind = "documentation"
	KindDownloads     ContentKind = "downloads"
	KindImages        ContentKind = "images"
	KindVideos        ContentKind = "videos"
)

// ContentKinds lists every namespaced subtree in copy order.
var ContentKinds = []ContentKind{
	KindData,
	KindDataFile,
	KindDocumentation,
	KindDownloads,
	KindImages,
	KindVideos,
}

// RelPath returns the archive-relative path of the subtree for a module key.
func (k ContentKind) RelPath(key string) string {
	switch k {
	case KindData:
		return filepath.Join("data", "documentation", key)
	case KindDataFile:
		return filepath.Join("data", "documentation", key+".json")
	case KindDocumentation:
		return filepath.Join("documentation", key)
	case KindDownloads:
		return filepath.Join("downloads", key)
	case KindImages:
		return filepath.Join("images", key)
	case KindVideos:
		return filepath.Join("videos", key)
	}
	return ""
}

// ModuleContent records what was merged for one module.
type ModuleContent struct {
	Module  string        `json:"module"`
	Copied  []ContentKind `json:"copied"`
	Missing []ContentKind `json:"missing,omitempty"`
	Failed  []ContentKind `json:"failed,omitempty"`
}

// MergeSummary records the outcome of MergeContent.
type MergeSummary struct {
	Modules []ModuleContent `json:"modules"`
}

// Copied returns the total number of subtrees copied.
func (s MergeSummary) Copied() int {
	n := 0
	for _, m := range s.Modules {
		n += len(m.Copied)
	}
	return n
}

// MergeContent copies every module's namespaced subtrees from
// stagingRoot/<module name> into outputRoot. Missing subtrees are skipped and
// copy failures are logged; neither stops the merge.
func MergeContent(modules []module.Module, stagingRoot, outputRoot string) MergeSummary {
	summary := MergeSummary{Modules: make([]ModuleContent, 0, len(modules))}
	for _, m := range modules {
		mc := ModuleContent{Module: m.Name, Copied: []ContentKind{}}
		staged := filepath.Join(stagingRoot, m.Name)
		for _, kind := range ContentKinds {
			rel := kind.RelPath(m.Key())
			src := filepath.Join(staged, rel)
			err := Copy(src, filepath.Join(outputRoot, rel))
			switch {
			case err == nil:
				mc.Copied = append(mc.Copied, kind)
			case errors.Is(err, os.ErrNotExist):
				mc.Missing = append(mc.Missing, kind)
				slog.Debug("Module has no content of this kind", logfields.Module(m.Name), slog.String("kind", string(kind)))
			default:
				mc.Failed = append(mc.Failed, kind)
				slog.Warn("Skipping module content that could not be copied",
					logfields.Module(m.Name),
					slog.String("kind", string(kind)),
					logfields.Error(err))
			}
		}
		summary.Modules = append(summary.Modules, mc)
	}
	return summary
}
