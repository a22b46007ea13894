// Package batch runs one instruction over many files: a pattern is
// expanded into groups, the user confirms which files to keep and the
// agent is dispatched once per group.
package batch
