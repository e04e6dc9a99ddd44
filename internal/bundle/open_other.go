//go:build !darwin

package bundle

import "errors"

// Open is not available on this platform.
func Open(app string) error {
	return errors.New("bundle: launching application bundles requires macOS")
}
