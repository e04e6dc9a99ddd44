//go:build darwin

package main

import (
	"fmt"
	"os/exec"
)

// openFile opens path in the default text editor.
func openFile(path string) error {
	out, err := exec.Command("open", "-t", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("open: %w: %s", err, out)
	}
	return nil
}
