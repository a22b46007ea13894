// Package manifest handles parsing and validation of piece manifests
// (piece.yaml). A manifest declares a piece's variables, the files its
// prepare and setup phases add, and the instruction template handed to the
// agent. Manifests are validated against an embedded JSON Schema.
package manifest
