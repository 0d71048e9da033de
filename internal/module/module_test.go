package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "utils", Key("Utils"))
	assert.Equal(t, "swiftdoccmultitargets", Key("SwiftDocCMultiTargets"))
	assert.Equal(t, "ärger", Key("ÄRGER"))
	assert.Equal(t, "app", Module{Name: "App"}.Key())
}

func TestNewSet_Order(t *testing.T) {
	s, err := NewSet("App", []string{"Utils", "Networking"})
	require.NoError(t, err)

	assert.Equal(t, "App", s.Main().Name)
	assert.True(t, s.Main().Main)
	assert.Equal(t, []string{"App", "Utils", "Networking"}, s.Names())
	assert.Equal(t, 3, s.Len())
	require.Len(t, s.Secondaries(), 2)
	assert.False(t, s.Secondaries()[0].Main)
}

func TestNewSet_Validation(t *testing.T) {
	cases := []struct {
		name    string
		main    string
		targets []string
	}{
		{"missing main", "", nil},
		{"blank main", "   ", nil},
		{"empty target", "App", []string{""}},
		{"duplicate target", "App", []string{"Utils", "utils"}},
		{"main repeated as target", "App", []string{"APP"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSet(tc.main, tc.targets)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestSet_Without(t *testing.T) {
	s, err := NewSet("App", []string{"Utils", "Net", "Extras"})
	require.NoError(t, err)

	trimmed := s.Without("net", "App")
	assert.Equal(t, []string{"App", "Utils", "Extras"}, trimmed.Names())
	// original untouched
	assert.Equal(t, 4, s.Len())
}

func TestSet_SecondariesIsCopy(t *testing.T) {
	s, err := NewSet("App", []string{"Utils"})
	require.NoError(t, err)
	sec := s.Secondaries()
	sec[0].Name = "Changed"
	assert.Equal(t, "Utils", s.Secondaries()[0].Name)
}
