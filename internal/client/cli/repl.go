package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	Balance(ctx context.Context) error
	Transfer(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// Prompts of the individual commands read from the same reader, so both
// share one buffer over stdin.
//
//	Signed out:  help, signup, signin, exit | quit
//	Signed in:   help, balance, transfer, signout, exit | quit
//
// Command errors are reported by the commands themselves; the loop only
// stops on EOF or exit.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("bank> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: balance, transfer, signout, exit")
			} else {
				printlnFn("Available commands: signup, signin, exit")
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "signin":
			_ = a.SignIn(ctx)

		case "b", "balance":
			_ = a.Balance(ctx)

		case "transfer":
			_ = a.Transfer(ctx)

		case "signout":
			_ = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
