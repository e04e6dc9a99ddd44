//go:build !darwin

package menubar

func install(string) (bar, error) {
	return nil, ErrUnsupportedPlatform
}
