// Package notify shows short user notifications for failed rewrite cycles.
package notify

import (
	"log/slog"
	"sync"

	"inplace/internal/logging"
)

// AppName is the sender shown by the notification center.
const AppName = "InplaceAI"

// Notifier delivers one notification.
type Notifier interface {
	Notify(title, body string) error
}

// Func adapts a function to Notifier.
type Func func(title, body string) error

func (f Func) Notify(title, body string) error {
	return f(title, body)
}

// Log writes notifications to a logger. It is the fallback where no
// notification service exists.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(title, body string) error {
	logger := l.Logger
	if logger == nil {
		logger = logging.Default().Logger
	}
	logger.Warn("notification", "title", title, "body", body)
	return nil
}

// Fallback tries Primary and logs through Secondary when it fails.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

func (f Fallback) Notify(title, body string) error {
	err := f.Primary.Notify(title, body)
	if err == nil || f.Secondary == nil {
		return err
	}
	return f.Secondary.Notify(title, body)
}

// Message is one recorded notification.
type Message struct {
	Title string
	Body  string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Notify(title, body string) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, Message{Title: title, Body: body})
	r.mu.Unlock()
	return nil
}

// Messages returns the notifications received so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// New returns the platform notifier, logging through logger when delivery
// fails.
func New(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = logging.Default().WithComponent("notify").Logger
	}
	return Fallback{Primary: platform(logger), Secondary: Log{Logger: logger}}
}
