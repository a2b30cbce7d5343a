package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo is what the menu banner shows.
type HeaderInfo struct {
	Version string // e.g. "v0.4.0", omitted when empty
	Hosts   int
	Source  string // SSH config path
}

// HeaderWidth is the width of the divider under the banner.
const HeaderWidth = 50

// RenderHeader renders the banner printed once above the menu:
//
//	sshmenu v0.4.0
//	3 hosts from /home/u/.ssh/config
//	━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
func RenderHeader(info HeaderInfo) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Render("sshmenu"))
	if info.Version != "" {
		b.WriteString(" ")
		b.WriteString(style(ColorSecondary).Render(info.Version))
	}
	b.WriteString("\n")

	noun := "hosts"
	if info.Hosts == 1 {
		noun = "host"
	}
	b.WriteString(style(ColorMuted).Render(fmt.Sprintf("%d %s from %s", info.Hosts, noun, info.Source)))
	b.WriteString("\n")

	b.WriteString(style(ColorMuted).Render(strings.Repeat("━", HeaderWidth)))
	b.WriteString("\n")
	return b.String()
}

// PrintHeader writes the banner to w.
func PrintHeader(w io.Writer, info HeaderInfo) {
	fmt.Fprint(w, RenderHeader(info))
}
