// Package ui renders sshmenu's terminal output: the numbered host menu,
// the optional Bubble Tea host picker, attempt progress lines, tables and
// structured errors.
//
// # Menu
//
//	menu := ui.NewMenu(hosts, os.Stdin, os.Stdout)
//	host, ok, err := menu.Choose() // ok is false on q or end of input
//
// Invalid input renders an InvalidSelection warning and re-prompts.
//
// # Colors
//
// Colors are ANSI codes so output follows the terminal theme:
//
//	ColorSuccess   (green)  - Connected, saved
//	ColorError     (red)    - Fatal errors
//	ColorWarning   (yellow) - Recoverable errors, back to the menu
//	ColorInfo      (cyan)   - Menu numbers
//	ColorMuted     (gray)   - Descriptions, causes, suggestions
//	ColorSecondary (blue)   - Attempts in progress
//
// Use DisableColors() for --no-color.
package ui
