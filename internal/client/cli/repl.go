package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	hasTour() bool
	NewTour(ctx context.Context) error
	JoinTour(ctx context.Context, args []string) error
	OpenTour(ctx context.Context, args []string) error
	Tours(ctx context.Context) error
	LeaveTour(ctx context.Context) error
	DeleteTour(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Paste(ctx context.Context, args []string) error
	Check(ctx context.Context, args []string) error
	Visa(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Hide(ctx context.Context, args []string) error
	Lists(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the tourcheck CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments. The
// loop exits on EOF, on context cancellation, or when the user types "exit"
// or "quit". A promptFn returning "" suppresses the prompt.
//
// Prompt & Commands
//
//	No active tour:
//	  - new                 create a tour (prompts for agency, group, date)
//	  - join <code>         join a shared tour
//	  - open <code>         reopen a tour stored on this device
//	  - tours               list tours stored on this device
//	  - delete <code>       forget a tour on this device
//
//	Active tour:
//	  - add [list]          add a passenger
//	  - import <file> [list]  import a .csv or .xlsx file
//	  - paste [list]        paste passengers as text
//	  - (l)ist [query]      list passengers, optionally filtered
//	  - check <n|id>        toggle checked-out
//	  - visa <n|id>         toggle the visa flag
//	  - remove <n|id>       remove a passenger
//	  - stats               counts
//	  - hide on|off         hide checked-out passengers in listings
//	  - lists [a,b,...]     show or set list names
//	  - export <file>       write the list to .xlsx
//	  - status              tour and sync state
//	  - leave               deactivate the tour
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, promptFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		if p := promptFn(); p != "" {
			printlnFn(p)
		}
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			if a.hasTour() {
				printlnFn("Available commands: add, import, paste, (l)ist, check, visa, remove, stats, hide, lists, export, status, leave, tours, exit")
			} else {
				printlnFn("Available commands: new, join, open, tours, delete, status, exit")
			}

		case "new":
			cmdErr = a.NewTour(ctx)
		case "join":
			cmdErr = a.JoinTour(ctx, args)
		case "open":
			cmdErr = a.OpenTour(ctx, args)
		case "tours":
			cmdErr = a.Tours(ctx)
		case "leave":
			cmdErr = a.LeaveTour(ctx)
		case "delete":
			cmdErr = a.DeleteTour(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "paste":
			cmdErr = a.Paste(ctx, args)
		case "check", "c":
			cmdErr = a.Check(ctx, args)
		case "visa":
			cmdErr = a.Visa(ctx, args)
		case "remove", "rm":
			cmdErr = a.Remove(ctx, args)
		case "l", "list", "search":
			cmdErr = a.List(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx)
		case "hide":
			cmdErr = a.Hide(ctx, args)
		case "lists":
			cmdErr = a.Lists(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
	}
}
