// Package cli provides the interactive tourcheck command-line client.
//
// It wires configuration, the SQLite snapshot store, the remote gateway with
// its connectivity watcher, and the synchronization engine, then runs a REPL
// over the active tour. Typical flow: restore the last active tour, watch
// reachability in the background, and execute user commands; remote changes
// are announced between prompts.
//
// Key features:
//   - New / Join / Open / Leave / Delete tours
//   - Add, check, visa, remove passengers
//   - Import from CSV, XLSX or pasted text; export to XLSX
//   - List / search with the hidden-checked filter and counts
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp and runREPL for details.
package cli
