// Package storage manages the on-disk artifact layout for jirascraper.
//
// The storage package handles:
//   - Creating and managing the raw/ and processed/ directory layout
//   - Saving raw issue documents with atomic write operations
//   - Appending normalized records to per-project JSONL streams
//   - Scanning streams to recover the set of already-emitted keys
//
// The Manager type is the primary interface for storage operations. Raw
// documents are written atomically via a temporary file and rename, so a
// crash mid-write never leaves a truncated document behind. The JSONL
// streams are append-only; a record is never rewritten once emitted.
//
// Layout under the base directory:
//
//	raw/<PROJECT>/<KEY>.json    one verbatim tracker document per issue
//	processed/<PROJECT>.jsonl   one normalized record per line
//
// Usage:
//
//	manager, err := storage.NewManager("outputs", log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Archive the raw document; rewriting the same key is harmless
//	if err := manager.SaveRaw("SPARK", "SPARK-1234", data); err != nil {
//	    log.Printf("Failed to save raw record: %v", err)
//	}
//
//	// Append normalized lines to the project stream
//	err = manager.AppendProcessed("SPARK", lines)
package storage
