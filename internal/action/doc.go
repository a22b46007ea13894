// Package action runs one piece from module loading to agent dispatch.
//
// A run moves through a fixed sequence of states:
//
//	Loading → CollectingFiles → Preparing → ResolvingPass1 → SettingUp →
//	ResolvingPass2 → Prompting → Finalizing → Dispatching → Completed
//
// Any failure ends the run in Aborted. Hooks see the run through a
// hook.Context whose file lists only grow.
package action
