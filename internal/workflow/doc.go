// Package workflow fans files out to a bounded worker pool and gathers their
// outcomes.
//
// Pool runs one task per file with at most N in flight and reports results in
// enumeration order. A task failure never cancels its siblings; cancelling
// the context only stops new files from being dispatched. Batch layers the
// organizer on top of Pool and tallies a Summary for the CLI.
package workflow
