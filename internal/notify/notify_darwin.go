//go:build darwin

package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// The text is passed as arguments so it never needs AppleScript quoting.
const script = `on run argv
	display notification (item 2 of argv) with title (item 1 of argv)
end run`

type osascript struct {
	logger *slog.Logger
}

func platform(logger *slog.Logger) Notifier {
	return osascript{logger: logger}
}

func (n osascript) Notify(title, body string) error {
	cmd := exec.Command("osascript", "-", title, body)
	cmd.Stdin = strings.NewReader(script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			return fmt.Errorf("osascript notify: %s", trimmed)
		}
		return fmt.Errorf("osascript notify: %w", err)
	}
	n.logger.Debug("notification shown", "title", title)
	return nil
}
