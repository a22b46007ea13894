// Package scaffold creates new pieces. It powers the "puzzle create-piece"
// command: it writes the piece directory layout and a lifecycle file from
// embedded templates, then optionally asks the agent to derive template
// files from reference code.
package scaffold
