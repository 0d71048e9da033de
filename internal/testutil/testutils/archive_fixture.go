package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FixtureAssets mirrors the shared files a documentation archive carries at its root.
var FixtureAssets = []string{
	"css/index.css",
	"img/logo.svg",
	"js/index.js",
	"developer-og-twitter.jpg",
	"developer-og.jpg",
	"favicon.ico",
	"favicon.svg",
	"index.html",
	"metadata.json",
}

// Content kinds understood by ArchiveFixture.Content.
const (
	FixtureData          = "data"
	FixtureDataFile      = "data_file"
	FixtureDocumentation = "documentation"
	FixtureDownloads     = "downloads"
	FixtureImages        = "images"
	FixtureVideos        = "videos"
)

// ArchiveFixture describes a fake staged archive for one module.
type ArchiveFixture struct {
	Module string
	// Index is the raw index.json; empty means DefaultIndex(Module).
	Index string
	// Content lists the namespaced subtrees to create; nil creates
	// data, data_file, documentation and images.
	Content []string
	// OmitAssets lists FixtureAssets entries (top-level name) to leave out.
	OmitAssets []string
}

// DefaultIndex returns a minimal swift navigation index for module with the given child titles.
func DefaultIndex(module string, children ...string) string {
	key := strings.ToLower(module)
	items := make([]string, 0, len(children))
	for _, c := range children {
		items = append(items, fmt.Sprintf(`{"title": %q, "type": "article", "path": "/documentation/%s/%s"}`, c, key, strings.ToLower(c)))
	}
	return fmt.Sprintf(`{
  "interfaceLanguages": {
    "swift": [
      {"title": %q, "type": "module", "path": "/documentation/%s", "children": [%s]}
    ]
  },
  "schemaVersion": {"major": 0, "minor": 1, "patch": 0}
}
`, module, key, strings.Join(items, ", "))
}

// WriteArchive writes the fixture into root, the module's staging directory.
func WriteArchive(root string, f ArchiveFixture) error {
	key := strings.ToLower(f.Module)
	omit := make(map[string]bool, len(f.OmitAssets))
	for _, a := range f.OmitAssets {
		omit[a] = true
	}

	files := map[string]string{}
	for _, a := range FixtureAssets {
		top := strings.SplitN(a, "/", 2)[0]
		if omit[top] {
			continue
		}
		files[a] = f.Module + " asset " + a
	}

	index := f.Index
	if index == "" {
		index = DefaultIndex(f.Module)
	}
	files[filepath.Join("index", "index.json")] = index

	content := f.Content
	if content == nil {
		content = []string{FixtureData, FixtureDataFile, FixtureDocumentation, FixtureImages}
	}
	for _, kind := range content {
		switch kind {
		case FixtureData:
			files[filepath.Join("data", "documentation", key, "intro.json")] = `{"kind":"article"}`
		case FixtureDataFile:
			files[filepath.Join("data", "documentation", key+".json")] = `{"kind":"symbol"}`
		case FixtureDocumentation:
			files[filepath.Join("documentation", key, "index.html")] = "<html>" + f.Module + "</html>"
		case FixtureDownloads:
			files[filepath.Join("downloads", key, "sample.zip")] = "zip"
		case FixtureImages:
			files[filepath.Join("images", key, "diagram.png")] = "png"
		case FixtureVideos:
			files[filepath.Join("videos", key, "intro.mp4")] = "mp4"
		default:
			return fmt.Errorf("unknown fixture content kind %q", kind)
		}
	}

	for rel, body := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}
