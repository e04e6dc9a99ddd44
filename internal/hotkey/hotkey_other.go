//go:build !darwin

package hotkey

func start(c Combo) (hook, error) {
	return nil, ErrUnsupportedPlatform
}
