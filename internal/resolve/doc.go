// Package resolve assigns values to the unresolved variables of a table by
// asking the user, one variable at a time in depth order.
package resolve
