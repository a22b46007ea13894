// Package vars holds the variable table shared by one action run together
// with the pure functions that operate on it: placeholder scanning,
// resolution ordering and path templating.
//
// A placeholder is written {NAME} where NAME matches \w+. Names are
// case-sensitive and a table never forgets a name once it has been seen.
package vars
