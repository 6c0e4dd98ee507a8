// Package analysis runs one patient submission end to end.
//
// A Pipeline validates the payload, computes biometric deltas (annotated with
// CUSUM change points), embeds the narrative together with the delta summary,
// ranks matching conditions and asks the brief generator for a structured
// clinical brief. Validation and delta errors are client errors reported
// before any external call. Failures of the embedding, retrieval or
// generation stages are reported as *StageError values matching
// ErrPipelineFailed.
//
// Each submission is a single sequential flow. Many submissions can run
// concurrently through Submit and RunAll, which share a bounded worker pool.
package analysis
