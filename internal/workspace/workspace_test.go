package workspace

import (
	"os"
	"path/filepath"
	"testing"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
)

func TestNewLayout_Defaults(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	l, err := NewLayout(out, "")
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	if l.OutputRoot() != out {
		t.Errorf("expected output root %s, got %s", out, l.OutputRoot())
	}
	if want := filepath.Join(out, DefaultStagingDir); l.StagingRoot() != want {
		t.Errorf("expected staging %s, got %s", want, l.StagingRoot())
	}
	if want := filepath.Join(out, "cache", "Utils", "index", "index.json"); l.ModuleIndexPath("Utils") != want {
		t.Errorf("unexpected module index path %s", l.ModuleIndexPath("Utils"))
	}
	if want := filepath.Join(out, "index", "index.json"); l.IndexPath() != want {
		t.Errorf("unexpected index path %s", l.IndexPath())
	}
}

func TestNewLayout_AbsoluteStaging(t *testing.T) {
	base := t.TempDir()
	staging := filepath.Join(base, "staging")
	l, err := NewLayout(filepath.Join(base, "site"), staging)
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	if l.StagingRoot() != staging {
		t.Errorf("expected staging %s, got %s", staging, l.StagingRoot())
	}
}

func TestNewLayout_Rejects(t *testing.T) {
	cases := map[string][2]string{
		"empty output":       {"", ""},
		"filesystem root":    {"/", ""},
		"staging equals out": {"/tmp/site", "."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLayout(tc[0], tc[1])
			if err == nil {
				t.Fatal("expected error")
			}
			if !ferrors.HasCategory(err, ferrors.CategoryConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestPrepare_CreatesSkeleton(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	l, err := NewLayout(out, "")
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	if err := l.Prepare(); err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}

	for _, dir := range append([]string{DefaultStagingDir}, SkeletonDirs...) {
		st, err := os.Stat(filepath.Join(out, dir))
		if err != nil {
			t.Errorf("expected %s to exist: %v", dir, err)
			continue
		}
		if !st.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestPrepare_RemovesStaleOutput(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "site")
	staging := filepath.Join(base, "staging")
	stale := []string{
		filepath.Join(out, "documentation", "old", "index.html"),
		filepath.Join(staging, "Old", "index.html"),
	}
	for _, f := range stale {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(f, []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	l, err := NewLayout(out, staging)
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	if err := l.Prepare(); err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	for _, f := range stale {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", f)
		}
	}
}

func TestCleanup_RemovesOnlyStaging(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	l, err := NewLayout(out, "")
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	if err := l.Prepare(); err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	if err := l.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(l.StagingRoot()); !os.IsNotExist(err) {
		t.Errorf("staging still exists after cleanup: %s", l.StagingRoot())
	}
	if _, err := os.Stat(l.OutputPath("index")); err != nil {
		t.Errorf("output skeleton must survive cleanup: %v", err)
	}
}

func TestPublish_ReplacesOutput(t *testing.T) {
	base := t.TempDir()
	final := filepath.Join(base, "site")
	next := NextDir(final)
	if next != final+".next" {
		t.Fatalf("NextDir() = %s", next)
	}
	for dir, content := range map[string]string{final: "old", next: "new"} {
		if err := os.MkdirAll(filepath.Join(dir, "index"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "index", "index.json"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Publish(next, final); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(final, "index", "index.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("published index = %q, want new", data)
	}
	for _, gone := range []string{next, PrevDir(final)} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", gone)
		}
	}
}

func TestPublish_WithoutPreviousOutput(t *testing.T) {
	final := filepath.Join(t.TempDir(), "site")
	next := NextDir(final)
	if err := os.MkdirAll(next, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Publish(next, final); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if fi, err := os.Stat(final); err != nil || !fi.IsDir() {
		t.Errorf("expected %s to be a directory: %v", final, err)
	}
}

func TestPublish_MissingNextKeepsOutput(t *testing.T) {
	final := filepath.Join(t.TempDir(), "site")
	if err := os.MkdirAll(final, 0o755); err != nil {
		t.Fatal(err)
	}
	err := Publish(NextDir(final), final)
	if err == nil {
		t.Fatal("expected an error when the next directory is missing")
	}
	if !ferrors.HasCategory(err, ferrors.CategoryFileSystem) {
		t.Errorf("expected filesystem category, got %v", err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Errorf("previous output must be restored: %v", err)
	}
}
