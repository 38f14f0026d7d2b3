// Command hs is the command-line companion to hackerstories.
//
// Usage:
//
//	hs                      Show help
//	hs search <term>        Run a search and print the story list
//	hs events               JSONL event log viewer
//	hs stats                Event log and cache statistics
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const usage = `hs - hackerstories command-line tools

Usage:
  hs <command> [flags]

Commands:
  search      Search Hacker News stories and print them
  events      JSONL event log viewer
  stats       Event log and page cache statistics

Environment:
  HS_ENDPOINT      Search API endpoint
  HS_CACHE_PATH    Page cache database (":memory:" disables persistence)
  HS_RATE          Requests per second against the API

Run 'hs <command> -h' for command-specific help.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches args[0] and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	var err error
	switch cmd := args[0]; cmd {
	case "search":
		err = runSearch(args[1:], stdout)
	case "events":
		err = runEvents(args[1:], stdout)
	case "stats":
		err = runStats(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "hs: unknown command %q\n\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "hs %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
