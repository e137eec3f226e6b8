package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hook mirrors log entries into a debug file, one synced line per entry.
type Hook struct {
	mu   sync.Mutex
	file *os.File
}

// DefaultPath returns ~/.config/osc2midi/debug.log
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "osc2midi", "debug.log"), nil
}

// Enable starts debug logging to path, truncating any previous run.
func Enable(path string) (*Hook, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	h := &Hook{file: f}
	h.write(time.Now(), "debug", "=== Debug logging started ===")
	return h, nil
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire writes the entry with its component as the category column.
func (h *Hook) Fire(e *logrus.Entry) error {
	category, _ := e.Data["component"].(string)
	if category == "" {
		category = e.Level.String()
	}
	msg := e.Message
	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		msg += ": " + err.Error()
	}
	h.write(e.Time, category, msg)
	return nil
}

// Close stops debug logging. Later entries are discarded.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

func (h *Hook) write(ts time.Time, category, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return
	}
	fmt.Fprintf(h.file, "[%s] %-10s %s\n", ts.Format("15:04:05.000"), category, msg)
	h.file.Sync() // flush immediately so we see logs even on crash
}
