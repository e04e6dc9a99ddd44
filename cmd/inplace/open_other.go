//go:build !darwin

package main

import (
	"fmt"
	"os/exec"
)

func openFile(path string) error {
	out, err := exec.Command("xdg-open", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("xdg-open: %w: %s", err, out)
	}
	return nil
}
