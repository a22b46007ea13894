// Package config loads puzzle settings. User-level defaults live at
// ~/.puzzle/config.yaml; a project file named puzzle.yaml (or .yml/.json)
// found by walking up from the working directory is merged over them and
// marks the repository root. PUZZLE_* environment variables win over both.
package config
