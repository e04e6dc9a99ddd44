//go:build !darwin

package keys

type unsupported struct{}

// New returns a synthesizer that always fails on this platform.
func New() Synthesizer {
	return unsupported{}
}

func (unsupported) Send(Shortcut) error {
	return ErrUnsupportedPlatform
}
