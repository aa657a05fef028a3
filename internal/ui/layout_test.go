package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayout_ContentHeight(t *testing.T) {
	l := NewLayout(100, 30)
	assert.Equal(t, 100, l.ContentWidth())
	assert.Equal(t, 28, l.ContentHeight())
}

func TestRenderWithFrame_PadsContent(t *testing.T) {
	l := NewLayout(40, 10)
	out := l.RenderWithFrame("head", "body", "status")
	assert.Equal(t, 10, lipgloss.Height(out))
	assert.True(t, strings.HasPrefix(out, "head"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a longer title", 6, "a lon…"},
		{"anything", 0, ""},
		{"héllo wörld", 5, "héll…"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestFormSize(t *testing.T) {
	assert.Equal(t, 40, FormWidth(20))
	assert.Equal(t, 76, FormWidth(80))
	assert.Equal(t, 100, FormWidth(300))
	assert.Equal(t, 10, FormHeight(5))
	assert.Equal(t, 36, FormHeight(40))
}
