// Package history remembers the variable values of completed actions in
// <puzzleDir>/.puzzle.history.json, most recent first, and turns recent
// records into prompt defaults.
package history
