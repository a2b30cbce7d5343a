package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"golang.org/x/term"
)

// hostItem implements list.Item for the Bubbles list component. index is
// the host's position in the menu, which keeps duplicate aliases apart.
type hostItem struct {
	index int
	host  sshutil.HostRecord
}

func (i hostItem) Title() string {
	return i.host.Alias
}

func (i hostItem) Description() string {
	var parts []string
	if i.host.Description != "" {
		parts = append(parts, i.host.Description)
	}
	if i.host.RemoteAddress != "" {
		target := i.host.RemoteAddress
		if i.host.User != "" {
			target = i.host.User + "@" + target
		}
		parts = append(parts, target)
	}
	return strings.Join(parts, " | ")
}

func (i hostItem) FilterValue() string {
	// Search by alias, address, user and description
	values := []string{i.host.Alias}
	for _, v := range []string{i.host.RemoteAddress, i.host.User, i.host.Description} {
		if v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, " ")
}

// HostPickerModel is a Bubble Tea model for selecting a host.
type HostPickerModel struct {
	list     list.Model
	hosts    []sshutil.HostRecord
	selected int // -1 until a host is picked
	quitting bool
	width    int
	height   int
}

type hostPickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var hostPickerKeys = hostPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "connect"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "quit"),
	),
}

// NewHostPickerModel creates a new host picker model.
func NewHostPickerModel(hosts []sshutil.HostRecord) HostPickerModel {
	items := make([]list.Item, len(hosts))
	for i, h := range hosts {
		items[i] = hostItem{index: i, host: h}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select a host"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = style(ColorMuted)

	return HostPickerModel{
		list:     l,
		hosts:    hosts,
		selected: -1,
		width:    80,
		height:   15,
	}
}

// Init implements tea.Model.
func (m HostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys go to the filter input while typing
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, hostPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(hostItem); ok {
				m.selected = item.index
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HostPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the index of the picked host, or -1 if cancelled.
func (m HostPickerModel) Selected() int {
	return m.selected
}

// PickHost runs the picker on the terminal. ok is false when the user
// cancels.
func PickHost(hosts []sshutil.HostRecord) (host sshutil.HostRecord, ok bool, err error) {
	return PickHostWithIO(hosts, os.Stdout, os.Stdin)
}

// PickHostWithIO runs the picker with custom I/O.
func PickHostWithIO(hosts []sshutil.HostRecord, output io.Writer, input io.Reader) (sshutil.HostRecord, bool, error) {
	if len(hosts) == 0 {
		return sshutil.HostRecord{}, false, errors.New(errors.ErrConfig,
			"No hosts to pick from",
			"Add a 'Host <alias>' block to your SSH config.")
	}

	p := tea.NewProgram(
		NewHostPickerModel(hosts),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	finalModel, err := p.Run()
	if err != nil {
		return sshutil.HostRecord{}, false, errors.WrapWithCode(err, errors.ErrInput,
			"Host picker failed",
			"Run without --tui to use the numbered menu.")
	}

	if m, ok := finalModel.(HostPickerModel); ok && m.Selected() >= 0 {
		return hosts[m.Selected()], true, nil
	}
	return sshutil.HostRecord{}, false, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
