// Package state keeps per-user conversation state between updates.
//
// Entries are partitioned strictly by user id, bounded by an LRU and expire
// lazily on read, so no background goroutine is involved.
package state
