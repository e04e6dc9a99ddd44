//go:build !darwin && !linux

package notify

import "log/slog"

func platform(logger *slog.Logger) Notifier {
	return Log{Logger: logger}
}
