//go:build darwin

package bundle

import (
	"fmt"
	"os/exec"
)

// Open launches app through LaunchServices.
func Open(app string) error {
	out, err := exec.Command("open", app).CombinedOutput()
	if err != nil {
		return fmt.Errorf("open: %w: %s", err, out)
	}
	return nil
}
