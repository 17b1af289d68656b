// Package report materializes fiscal reports as chunked JSON files and serves the
// persisted content back as an offset/limit paginated text view.
//
// A Generator fetches one report from the backend, splits the record array into the
// store's fixed number of contiguous parts and writes each part as a pretty-printed JSON
// document named {key}_parte{n}.json. An Extractor concatenates every document in the
// store, in name order, and returns windows of that text measured in characters.
package report
