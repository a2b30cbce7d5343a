package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rileyhilliard/sshmenu/internal/connect"
)

// AttemptDisplay prints one line per connection attempt. ssh owns the
// terminal while it runs, so lines are written before each attempt and
// once the sequence finishes.
//
// Example output:
//
//	◐ web: attempt 1 via agent
//	◐ web: attempt 2 with id_ed25519
//	✓ Session with web ended after 2 attempt(s) (12m3s)
type AttemptDisplay struct {
	w       io.Writer
	alias   string
	started time.Time
	now     func() time.Time
}

// NewAttemptDisplay creates a display for alias writing to w.
func NewAttemptDisplay(w io.Writer, alias string) *AttemptDisplay {
	return &AttemptDisplay{w: w, alias: alias, now: time.Now}
}

// Attempt is suitable as connect.Connector.OnAttempt.
func (d *AttemptDisplay) Attempt(a connect.Attempt) {
	if d.started.IsZero() {
		d.started = d.now()
	}

	how := "via agent"
	if !a.IsAgent() {
		how = "with " + filepath.Base(a.Identity)
	}
	fmt.Fprintf(d.w, "%s %s: attempt %d %s\n",
		style(ColorSecondary).Render(SymbolProgress),
		d.alias, a.Number, style(ColorMuted).Render(how))
}

// Finish reports the outcome of Connector.Connect.
func (d *AttemptDisplay) Finish(res connect.Result, err error) {
	if err != nil {
		RenderError(d.w, err)
		return
	}
	elapsed := ""
	if !d.started.IsZero() {
		elapsed = " " + style(ColorMuted).Render("("+formatDuration(d.now().Sub(d.started))+")")
	}
	RenderSuccess(d.w, "Session with %s ended after %d attempt(s)%s", d.alias, res.Attempts, elapsed)
}

// formatDuration renders d rounded to a readable precision.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		s := d.Round(time.Second).String()
		if strings.HasSuffix(s, "m0s") {
			s = strings.TrimSuffix(s, "0s")
		}
		return s
	}
}
