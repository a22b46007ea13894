// Package cli defines the Cobra command tree for the puzzle CLI. The root
// command runs pieces; every other file registers one subcommand (batch,
// create-piece, list, etc.) with it. Commands load a workspace, wire the
// internal packages together and only handle flags, output and the
// mapping of clean aborts to short messages.
package cli
