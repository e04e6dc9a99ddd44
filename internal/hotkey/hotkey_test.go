package hotkey

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    Combo
		canon   string
		symbol  string
		wantErr bool
	}{
		{in: "option+shift+r", want: Combo{Mods: Option | Shift, Key: "r", KeyCode: 15}, canon: "option+shift+r", symbol: "⌥⇧R"},
		{in: " Shift + ALT + R ", want: Combo{Mods: Option | Shift, Key: "r", KeyCode: 15}, canon: "option+shift+r", symbol: "⌥⇧R"},
		{in: "cmd+ctrl+space", want: Combo{Mods: Command | Control, Key: "space", KeyCode: 49}, canon: "control+cmd+space", symbol: "⌃⌘SPACE"},
		{in: "command+f5", want: Combo{Mods: Command, Key: "f5", KeyCode: 96}, canon: "cmd+f5", symbol: "⌘F5"},
		{in: "r", wantErr: true},
		{in: "shift+option", wantErr: true},
		{in: "shift++r", wantErr: true},
		{in: "shift+r+t", wantErr: true},
		{in: "hyper+r", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseCombo(test.in)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCombo)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
			assert.Equal(t, test.canon, got.String())
			assert.Equal(t, test.symbol, got.Symbol())
		})
	}
}

func TestCanonicalFormReparses(t *testing.T) {
	c, err := ParseCombo("shift+cmd+opt+ctrl+k")
	require.NoError(t, err)
	again, err := ParseCombo(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestRunUnsupported(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("needs a session event tap")
	}
	c, err := ParseCombo("option+shift+r")
	require.NoError(t, err)
	err = New(c, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
