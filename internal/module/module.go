// Package module describes the documentable units merged into one archive.
package module

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
)

// Module is one documentable unit compiled into its own archive.
type Module struct {
	Name string
	Main bool
}

// Key returns the namespace key used for every per-module path and link.
func (m Module) Key() string {
	return Key(m.Name)
}

func (m Module) String() string { return m.Name }

// Key lower-cases a module name the way the documentation compiler does
// when it derives per-module directory names.
func Key(name string) string {
	return cases.Lower(language.Und).String(name)
}

// Set is the ordered collection of modules for one run: exactly one main module
// followed by the secondary modules in the order they were requested.
type Set struct {
	main        Module
	secondaries []Module
}

// NewSet validates the requested names and builds a Set.
func NewSet(main string, targets []string) (*Set, error) {
	main = strings.TrimSpace(main)
	if main == "" {
		return nil, ferrors.ValidationError("please specify the main target with --main-target").Build()
	}
	s := &Set{main: Module{Name: main, Main: true}}
	seen := map[string]struct{}{Key(main): {}}
	for _, t := range targets {
		name := strings.TrimSpace(t)
		if name == "" {
			return nil, ferrors.ValidationError("empty --target value").Build()
		}
		if _, dup := seen[Key(name)]; dup {
			return nil, ferrors.ValidationError("module requested more than once").
				WithContext("module", name).
				Build()
		}
		seen[Key(name)] = struct{}{}
		s.secondaries = append(s.secondaries, Module{Name: name})
	}
	return s, nil
}

// Main returns the site root module.
func (s *Set) Main() Module { return s.main }

// Secondaries returns the non-root modules in request order.
func (s *Set) Secondaries() []Module {
	out := make([]Module, len(s.secondaries))
	copy(out, s.secondaries)
	return out
}

// All returns the main module followed by the secondaries.
func (s *Set) All() []Module {
	out := make([]Module, 0, len(s.secondaries)+1)
	out = append(out, s.main)
	return append(out, s.secondaries...)
}

// Names returns the module names of All.
func (s *Set) Names() []string {
	all := s.All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

// Len is the number of modules including the main module.
func (s *Set) Len() int { return len(s.secondaries) + 1 }

// Without returns a copy of the set with the named secondary modules removed.
// The main module is never removed.
func (s *Set) Without(names ...string) *Set {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[Key(n)] = struct{}{}
	}
	out := &Set{main: s.main}
	for _, m := range s.secondaries {
		if _, ok := drop[m.Key()]; ok {
			continue
		}
		out.secondaries = append(out.secondaries, m)
	}
	return out
}
