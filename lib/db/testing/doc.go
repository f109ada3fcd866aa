// Package testing provides a standardised conformance suite for database
// implementations that satisfy the db.KVDB interface.
//
// The suite checks the properties the attribute store relies on: values are
// copied on the way in and out, stale writes are ignored, the write index
// never decreases and Save/Load round-trips the complete content.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyDatabase()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
package testing
