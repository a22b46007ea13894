// Package logging builds the process logger and carries it through
// context.Context.
package logging
