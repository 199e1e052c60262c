package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status *StatusCommand
	Search *SearchCommand
	Add    *AddCommand
	Serve  *ServeCommand
	Sync   *SyncCommand
	Purge  *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "pagetrail"
	parser.LongDescription = "Personal browsing-history tracker: record page visits, find them again by keyword, optionally export to the cloud."

	cmds := &commands{
		Status: &StatusCommand{globals: &globals, version: version},
		Search: &SearchCommand{globals: &globals, version: version},
		Add:    &AddCommand{globals: &globals, version: version},
		Serve:  &ServeCommand{globals: &globals, version: version},
		Sync:   &SyncCommand{globals: &globals, version: version},
		Purge:  &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show history totals and sync state", "Show record counts, database info, top domains, and sync state.", cmds.Status)
	parser.AddCommand("search", "Search recorded pages", "Search recorded pages by keyword, ranked by relevance and recency. An empty query lists everything, newest first.", cmds.Search)
	parser.AddCommand("add", "Manually record a page visit", "Manually record a page visit with a URL and optional title.", cmds.Add)
	parser.AddCommand("serve", "Start the ingest daemon", "Start the local HTTP service browser extensions post visits to.", cmds.Serve)
	parser.AddCommand("sync", "Sync or export history", "Push/pull history to the cloud backend, or export it to a Google spreadsheet.", cmds.Sync)
	parser.AddCommand("purge", "Delete ALL recorded history", "Delete ALL recorded history. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the pagetrail CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("pagetrail %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
