// Package pipeline runs one input file through every phase.
//
// A Run moves strictly forward:
//
//	START -> REDUCED -> SEGMENTED -> SEPARATED -> ENHANCED -> DONE
//
// Only an empty segmentation, or cancellation of the caller's context, moves
// a run to ABORTED. Failures of a single model, segment, stem or enhanced file
// are logged where they happen and surface as fewer artifacts. The stems
// produced in the separation phase are handed to enhancement as an explicit
// list; nothing is rediscovered by listing a directory.
//
// Toolchain builds the production adapters from configuration; tests supply
// their own implementations of the small interfaces in this package.
package pipeline
