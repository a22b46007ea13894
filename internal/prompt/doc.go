// Package prompt asks the user questions. Prompter is the seam the rest of
// the program depends on; Terminal implements it with bubbletea for
// interactive terminals and Line with readline for plain input streams.
package prompt
