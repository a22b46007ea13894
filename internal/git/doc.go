// Package git lists the working tree's modified files so an action can
// read or write whatever the user is currently changing.
package git
