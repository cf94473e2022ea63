// Package memory holds the allocation-free building blocks of the hot
// path: a bounded slab pool that recycles fixed-width records without
// touching the garbage collector in steady state, and a bounded
// overwrite ring for recent-history buffers.
package memory
