package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
)

// ErrAssetMissing indicates a shared asset absent from the main module's archive.
var ErrAssetMissing = errors.New("shared asset missing from main module archive")

// SharedAssets are the site-wide files every archive carries at its root.
// The merged archive takes them from the main module only.
var SharedAssets = []string{
	"css",
	"img",
	"js",
	"developer-og-twitter.jpg",
	"developer-og.jpg",
	"favicon.ico",
	"favicon.svg",
	"index.html",
	"metadata.json",
}

// PromoteAssets copies SharedAssets from the main module's staged archive into
// outputRoot. Every asset must be present.
func PromoteAssets(mainStaging, outputRoot string) error {
	for _, name := range SharedAssets {
		src := filepath.Join(mainStaging, name)
		dst := filepath.Join(outputRoot, name)
		if err := Copy(src, dst); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ferrors.ConfigError("main module archive is missing a shared asset").
					WithCause(fmt.Errorf("%w: %s", ErrAssetMissing, name)).
					WithContext("asset", name).
					WithContext("path", src).
					Build()
			}
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "promote shared asset").
				Fatal().
				WithContext("asset", name).
				Build()
		}
		slog.Debug("Promoted shared asset", logfields.Source(src), logfields.Dest(dst))
	}
	return nil
}
