// Package runtime is the boundary to the external coding agent. A Job
// carries the instruction, the read and write file sets and any extra
// environment; a Runtime hands it to an agent process. DispatchRuntime
// selects the implementation by name.
package runtime
