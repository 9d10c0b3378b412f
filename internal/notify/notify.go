// Package notify tells the user a session finished.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"skillgate/internal/config"
	"skillgate/internal/runner"
)

const timeout = 10 * time.Second

// Notifier plays a sound and shows a desktop notification. Unsupported
// platforms are a no-op.
type Notifier struct {
	Title   string
	Message string
	Sound   string
	OS      string
	Runner  runner.Runner
	Logger  *slog.Logger
}

func New(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		Title:   cfg.Title,
		Message: cfg.Message,
		Sound:   cfg.Sound,
		OS:      runtime.GOOS,
		Runner:  runner.Exec{},
		Logger:  logger,
	}
}

// Commands returns the invocations Notify would run, in order.
func (n *Notifier) Commands() [][]string {
	switch n.OS {
	case "darwin":
		var cmds [][]string
		if n.Sound != "" {
			cmds = append(cmds, []string{"afplay", n.Sound})
		}
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(n.Message), appleQuote(n.Title))
		return append(cmds, []string{"osascript", "-e", script})
	case "linux":
		return [][]string{{"notify-send", n.Title, n.Message}}
	default:
		return nil
	}
}

// Notify runs every command. Failures are logged at debug level and dropped.
func (n *Notifier) Notify(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for _, c := range n.Commands() {
		if err := n.Runner.Run(ctx, "", c[0], c[1:]...); err != nil {
			n.logger().Debug("notification failed", "command", c[0], "error", err)
		}
	}
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
