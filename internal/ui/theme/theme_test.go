package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"nord", "dracula", "gruvbox", "catppuccin"} {
		th, ok := ByName(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, th.Name)
		assert.NotEmpty(t, th.PriorityUrgent)
	}

	_, ok := ByName("solarized")
	assert.False(t, ok)
}

func TestSetTheme(t *testing.T) {
	defer SetTheme(Nord)

	SetTheme(Dracula)
	assert.Equal(t, "dracula", Current.Theme.Name)
	assert.Equal(t, Dracula.Error, Current.Theme.Error)
}
