// Package expand turns wildcard path patterns into concrete, sorted lists
// of absolute paths, optionally partitioned into groups.
//
// Patterns use doublestar syntax. The character $ is accepted as an alias
// for * so that patterns survive shells that would otherwise expand them.
// A pattern segment suffixed with :G marks the grouping level for Groups.
package expand
