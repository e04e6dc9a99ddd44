//go:build darwin

package ax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFStringKeepsEmbeddedNUL(t *testing.T) {
	for _, text := range []string{"", "plain", "before\x00after", "é 🦊\x00\x00tail"} {
		s, ok := newCFString(text)
		require.True(t, ok, "%q", text)
		got, ok := goString(s)
		releaseCF(s)
		require.True(t, ok, "%q", text)
		assert.Equal(t, text, got)
	}
}
