// Package hook defines the capability a piece's lifecycle hooks receive.
//
// Go hooks live in a piece.go file interpreted at runtime. They import this
// package as "puzzle/hook":
//
//	package main
//
//	import "puzzle/hook"
//
//	func Setup(c hook.Context) error {
//		if c.Flag("WITH_TESTS") {
//			c.AddWriteFile("src/{MODULE}/{ENTITY}.spec.ts")
//		}
//		return nil
//	}
//
//	func Prompt(c hook.Context) (any, error) {
//		return "Create the " + c.Var("ENTITY") + " endpoint.", nil
//	}
package hook

import "reflect"

// ImportPath is the path piece scripts import this package under.
const ImportPath = "puzzle/hook"

// Context is the narrow view of a running action handed to hooks. File
// lists only grow: hooks may append but never remove entries.
type Context interface {
	// Var returns a variable's display value, or "" when unset.
	Var(name string) string
	// Flag reports whether a variable is true or a non-empty string.
	Flag(name string) bool
	// IsSet reports whether a variable has a value.
	IsSet(name string) bool
	// SetVar assigns a string variable.
	SetVar(name, value string)
	// Vars returns a copy of the assigned variables in display form.
	Vars() map[string]string
	// Values returns a copy of the assigned variables as string or bool.
	Values() map[string]any
	// Default returns the remembered value for a variable, or "".
	Default(name string) string

	ReadFiles() []string
	WriteFiles() []string
	AddReadFile(path string)
	AddWriteFile(path string)

	// Setting returns a read-only configuration value by key.
	Setting(key string) string
	PieceName() string
	ModuleDir() string
	WorkingDir() string
	RepoPath() string
}

// Prompt is the structured instruction form a Prompt hook may return.
type Prompt struct {
	Prompt string
}

// Symbols exposes this package to the script interpreter.
var Symbols = map[string]map[string]reflect.Value{
	ImportPath + "/hook": {
		"Context": reflect.ValueOf((*Context)(nil)),
		"Prompt":  reflect.ValueOf((*Prompt)(nil)),
	},
}
