// Package compose loads the lifecycle modules of an action: the optional
// shared module under <puzzleDir>/common and the mandatory piece module
// under <puzzleDir>/pieces/<name>.
//
// A module's lifecycle is declared by a piece.yaml manifest, a piece.go
// script, or both. Each module also owns two file sections: template/
// holds sources of files to generate and extra/ holds reference files.
package compose
