package navindex

import "errors"

// ErrMissingLanguages indicates an index document without an interfaceLanguages object.
var ErrMissingLanguages = errors.New("index has no interfaceLanguages")
