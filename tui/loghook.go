package tui

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogHook forwards formatted entries to the log pane. Entries are dropped
// when the pane falls behind.
type LogHook struct {
	lines chan string
}

func NewLogHook(size int) *LogHook {
	return &LogHook{lines: make(chan string, size)}
}

// Lines is the channel the model reads from.
func (h *LogHook) Lines() <-chan string {
	return h.lines
}

func (h *LogHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (h *LogHook) Fire(e *logrus.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-4.4s %s", e.Time.Format("15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		fmt.Fprintf(&b, ": %v", err)
	}

	select {
	case h.lines <- b.String():
	default:
	}
	return nil
}
