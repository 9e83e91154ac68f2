// Package ledger persists per-project fetch progress so interrupted runs
// resume exactly where they stopped.
//
// The state file is one JSON document keyed by project:
//
//	{
//	  "SPARK": {
//	    "start_at": 150,
//	    "pending": 0,
//	    "total_fetched": 150,
//	    "last_status": "success"
//	  }
//	}
//
// start_at is the next page offset and never moves backward outside an
// explicit reset. pending belongs to the current run only. A legacy flat
// form mapping project keys to plain counts is migrated on load.
//
// Saves are atomic (temp file, fsync, rename) so a crash mid-write leaves
// the previous state intact.
//
// Usage:
//
//	store, err := ledger.Open("state/checkpoints.json", log)
//	if err != nil {
//	    return err
//	}
//	entry := store.Get("SPARK")
//	entry.Pending = 100
//	entry.LastStatus = ledger.StatusInProgress
//	store.Set("SPARK", entry)
//	if err := store.Save(); err != nil {
//	    return err
//	}
package ledger
