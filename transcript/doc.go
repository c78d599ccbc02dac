// Package transcript records the conversations behind each engine run.
//
// A FileStore keeps one directory per run: metadata written as the run
// progresses, the full conversation persisted when it ends, large
// transcripts gzipped. Searcher answers content and metadata queries over
// a store, Viewer renders transcripts for the terminal or markdown export,
// and Retention archives and expires old runs.
//
// Transcripts are an audit artifact. Workflow state lives in the
// checkpoint store; nothing here is read back to resume a run.
package transcript
