package database

// HNSWMaxNeighbors is the M parameter for HNSW graph construction.
// Higher values improve recall at the cost of memory and build time.
const HNSWMaxNeighbors = 16

// DefaultSearchLimit caps similarity search results when the caller does not
// specify a limit.
const DefaultSearchLimit = 50
