package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullHelp_FollowsSections(t *testing.T) {
	k := DefaultKeyMap()
	sections := k.Sections()
	full := k.FullHelp()

	require.Len(t, full, len(sections))
	for i, s := range sections {
		assert.NotEmpty(t, s.Title)
		assert.Len(t, full[i], len(s.Bindings))
	}
}

func TestSections_EveryBindingHasHelp(t *testing.T) {
	for _, s := range DefaultKeyMap().Sections() {
		for _, b := range s.Bindings {
			assert.NotEmpty(t, b.Help().Key, s.Title)
			assert.NotEmpty(t, b.Help().Desc, s.Title)
		}
	}
}
