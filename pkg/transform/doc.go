// Package transform converts raw issue bodies into the normalized JSONL
// corpus, one line per issue, with a bundle of derived task prompts.
//
// The mapping is defensive: a record missing its id, key or project is
// skipped and logged as malformed, while every other absent field falls back
// to a documented default. Nullable fields (priority, assignee, reporter)
// become explicit JSON null, list fields become [], and timestamps pass
// through verbatim.
//
// Each project's output stream is append-only. The transformer filters out
// keys already present in the stream before appending, so transforming the
// same raw records twice never produces duplicate lines.
package transform
