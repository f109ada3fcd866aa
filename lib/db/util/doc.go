// Package util provides small building blocks shared by the storage engines
// and the lock class.
//
// The package contains:
//   - functions: Hash functions (FNV-1a with seed) and seed generation
//   - mapheap: A generic min priority queue that also supports key-based access,
//     used to find expired bid buckets
package util
