package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ConsoleNotifier prints notifications as one line each, the terminal
// counterpart of the UI snackbar.
type ConsoleNotifier struct {
	id  string
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier writes to out, or stdout when out is nil.
func NewConsoleNotifier(id string, out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	if id == "" {
		id = TypeConsole
	}
	return &ConsoleNotifier{id: id, out: out}
}

func newConsoleNotifier(_ context.Context, cfg NotifierConfig, _ Logger) (Notifier, error) {
	return NewConsoleNotifier(cfg.ID, nil), nil
}

func (c *ConsoleNotifier) ID() string   { return c.id }
func (c *ConsoleNotifier) Type() string { return TypeConsole }

func (c *ConsoleNotifier) Notify(_ context.Context, n Notification) error {
	line := fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), n.Message)
	if n.Detail != "" {
		line += ": " + n.Detail
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, line)
	return err
}
