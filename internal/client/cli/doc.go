// Package cli provides the interactive bankapi command-line client.
//
// It wires configuration, the HTTP API client and a small REPL. Typical
// flow: sign up or sign in, check the balance, transfer money, sign out.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or stdin is closed. See App and runREPL for details.
package cli
