// Package cli implements the sshmenu command-line interface.
//
// Running sshmenu with no subcommand loads the settings, parses the SSH
// config and loops on a numbered host menu (or the --tui picker), running
// the connection attempt sequence for each pick until the user quits.
//
// # Commands
//
//	sshmenu                       - Interactive host menu
//	sshmenu connect <alias|N|q>   - Connect to one host, no menu
//	sshmenu list                  - Hosts as a table or JSON
//	sshmenu show <alias>          - Resolved parameters and OpenSSH's view
//	sshmenu keys                  - Agent status and candidate keys
//	sshmenu known-hosts           - Merge and list known_hosts
//	sshmenu host set|unset        - Edit per-host settings
//	sshmenu config path|init|validate
//
// # Application State
//
// NewApp builds an App once per invocation: settings, the parsed host list,
// the key locator, the known_hosts store and the resolver/connector pair.
// Commands only read from it. Read-only commands skip the known_hosts
// consolidation that the menu and connect run on startup.
//
// # Errors
//
// Commands return *errors.Error values. Execute renders them with their
// suggestion, or as a JSON envelope when a --json flag is set.
package cli
