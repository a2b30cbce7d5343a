package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
)

// QuitKey ends the menu loop.
const QuitKey = "q"

// RenderMenu writes hosts as a numbered list:
//
//	[1] web - Frontend box
//	[2] db - No description available
func RenderMenu(w io.Writer, hosts []sshutil.HostRecord) {
	numStyle := style(ColorInfo)
	aliasStyle := lipgloss.NewStyle().Bold(true)
	descStyle := style(ColorMuted)

	width := len(strconv.Itoa(len(hosts)))
	for i, h := range hosts {
		num := fmt.Sprintf("[%*d]", width, i+1)
		fmt.Fprintf(w, "  %s %s - %s\n",
			numStyle.Render(num),
			aliasStyle.Render(h.Alias),
			descStyle.Render(h.Description))
	}
}

// ParseSelection turns menu input into a 0-based index. quit is true for
// the quit key. Anything that isn't a number in 1..count is an
// InvalidSelection error.
func ParseSelection(input string, count int) (index int, quit bool, err error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, QuitKey) {
		return 0, true, nil
	}
	n, convErr := strconv.Atoi(input)
	if convErr != nil || n < 1 || n > count {
		return 0, false, errors.InvalidSelection(input, count)
	}
	return n - 1, false, nil
}

// Menu is the numbered prompt loop.
type Menu struct {
	hosts []sshutil.HostRecord
	in    *bufio.Reader
	out   io.Writer
}

// NewMenu creates a menu reading choices from in.
func NewMenu(hosts []sshutil.HostRecord, in io.Reader, out io.Writer) *Menu {
	return &Menu{hosts: hosts, in: bufio.NewReader(in), out: out}
}

// Choose shows the menu and prompts until the input is valid. ok is false
// when the user quits or input ends.
func (m *Menu) Choose() (host sshutil.HostRecord, ok bool, err error) {
	fmt.Fprintln(m.out)
	RenderMenu(m.out, m.hosts)

	for {
		fmt.Fprintf(m.out, "\nSelect a host (1-%d, %s to quit): ", len(m.hosts), QuitKey)

		line, readErr := m.in.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return sshutil.HostRecord{}, false, readErr
		}
		if readErr == io.EOF && strings.TrimSpace(line) == "" {
			fmt.Fprintln(m.out)
			return sshutil.HostRecord{}, false, nil
		}

		idx, quit, selErr := ParseSelection(line, len(m.hosts))
		if quit {
			return sshutil.HostRecord{}, false, nil
		}
		if selErr != nil {
			RenderError(m.out, selErr)
			if readErr == io.EOF {
				return sshutil.HostRecord{}, false, nil
			}
			continue
		}
		return m.hosts[idx], true, nil
	}
}
