// Package cachefile provides a JSON-snapshot implementation of the
// driven.CacheStore interface.
//
// The whole store is one structured document on disk with three top-level
// fields: the last-sync timestamp, the per-post watermarks, and the
// per-key media records. It is loaded (or defaulted, if absent or
// corrupt) at the start of a run, mutated in memory, and written back
// atomically at the end of the run by the orchestrator.
//
// # File Format
//
//	{
//	  "last_sync": "2026-08-01T09:30:00Z",
//	  "posts":  { "<post-id>": "<last-edited timestamp>" },
//	  "media":  { "<media-key>": { "path": "...", "last_edited_time": "..." } }
//	}
//
// Media records written by earlier releases were bare path strings; the
// loader migrates those instead of treating them as corruption.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Reads take a shared lock,
// mutations an exclusive one, so parallel media acquisition cannot race
// the store.
package cachefile
