package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/objlock/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadRejectsGarbage", func(t *testing.T) {
			testLoadRejectsGarbage(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "obj\x00lock.a"
	testValue1 := []byte("record-1")
	testValue2 := []byte("record-2")

	database.Set(testKey, testValue1, 1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Fatalf("Expected key %q to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, 2)

	result, _ = database.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = database.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// the stored value must not alias the caller's slice either
	input := []byte("mutable")
	database.Set("alias", input, 3)
	input[0] = 'X'
	if result, _ = database.Get("alias"); !bytes.Equal(result, []byte("mutable")) {
		t.Errorf("Set should copy the value, got %s", result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	database.Set("k", []byte("v"), 1)
	database.Delete("k", 2)

	if _, exists := database.Get("k"); exists {
		t.Errorf("Key should not exist after Delete")
	}

	// deleting a missing key is a no-op
	database.Delete("missing", 3)

	// a key can be recreated after deletion
	database.Set("k", []byte("v2"), 4)
	if result, exists := database.Get("k"); !exists || !bytes.Equal(result, []byte("v2")) {
		t.Errorf("Expected recreated key to hold v2, got %s (exists=%v)", result, exists)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas|db.FeatureDelete)

	if database.Has("k") {
		t.Errorf("Has should be false for a missing key")
	}
	database.Set("k", nil, 1)
	if !database.Has("k") {
		t.Errorf("Has should be true after Set with an empty value")
	}
	database.Delete("k", 2)
	if database.Has("k") {
		t.Errorf("Has should be false after Delete")
	}
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	database.Set("k", []byte("new"), 10)
	database.Set("k", []byte("old"), 5)

	if result, _ := database.Get("k"); !bytes.Equal(result, []byte("new")) {
		t.Errorf("Stale Set must be ignored, got %s", result)
	}

	database.Delete("k", 9)
	if !database.Has("k") {
		t.Errorf("Stale Delete must be ignored")
	}

	database.Delete("k", 10)
	if database.Has("k") {
		t.Errorf("Delete with equal index must apply")
	}
}

func testWriteIdx(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)

	database.Set("a", []byte("1"), 7)
	if idx := database.WriteIdx(); idx != 7 {
		t.Errorf("Expected write index 7, got %d", idx)
	}

	database.SetWriteIdx(3)
	if idx := database.WriteIdx(); idx != 7 {
		t.Errorf("Write index must never decrease, got %d", idx)
	}

	database.SetWriteIdx(20)
	if idx := database.WriteIdx(); idx != 20 {
		t.Errorf("Expected write index 20, got %d", idx)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()

	// close the databases after the test
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureSave|db.FeatureLoad)

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("obj-%d\x00lock.l%d", i%17, i)
		database.Set(key, []byte(fmt.Sprintf("value-%d", i)), uint64(i+1))
	}

	// stale content in the target must be replaced
	database2.Set("leftover", []byte("x"), 1)

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("obj-%d\x00lock.l%d", i%17, i)
		expected := []byte(fmt.Sprintf("value-%d", i))

		actual, exists := database2.Get(key)
		if !exists {
			t.Errorf("Key %q not found after Load", key)
			continue
		}
		if !bytes.Equal(actual, expected) {
			t.Errorf("Value mismatch for key %q: expected %s, got %s", key, expected, actual)
		}
	}

	if database2.Has("leftover") {
		t.Errorf("Load must replace the previous content")
	}
	if idx := database2.WriteIdx(); idx != uint64(numEntries) {
		t.Errorf("Expected write index %d after Load, got %d", numEntries, idx)
	}
}

func testLoadRejectsGarbage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad)

	if err := database.Load(bytes.NewReader([]byte("definitely not a snapshot"))); err == nil {
		t.Errorf("Expected an error when loading garbage")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("", []byte("value for empty key"), 1)
	if result, exists := database.Get(""); !exists || !bytes.Equal(result, []byte("value for empty key")) {
		t.Errorf("Empty key mismatch: %s (exists=%v)", result, exists)
	}

	database.Set("nil-value-key", nil, 2)
	if result, exists := database.Get("nil-value-key"); !exists || len(result) != 0 {
		t.Errorf("Nil value resulted in %v (exists=%v)", result, exists)
	}

	largeKey := string(make([]byte, 1000))
	database.Set(largeKey, []byte("large key"), 3)
	if result, exists := database.Get(largeKey); !exists || !bytes.Equal(result, []byte("large key")) {
		t.Errorf("Large key mismatch")
	}

	largeValue := make([]byte, 1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	database.Set("large-value-key", largeValue, 4)
	if result, exists := database.Get("large-value-key"); !exists || !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch")
	}
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	numWorkers := 8
	opsPerWorker := 1000

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("w%d-k%d", workerId, i%50)
				idx := uint64(workerId*opsPerWorker + i + 1)
				switch i % 10 {
				case 9:
					database.Delete(key, idx)
				case 7, 8:
					database.Get(key)
				default:
					database.Set(key, []byte(key), idx)
				}
			}
		}(w)
	}
	wg.Wait()

	// every surviving key holds its own name as value
	for w := 0; w < numWorkers; w++ {
		for i := 0; i < 50; i++ {
			key := fmt.Sprintf("w%d-k%d", w, i)
			if value, exists := database.Get(key); exists && !bytes.Equal(value, []byte(key)) {
				t.Errorf("Value mismatch for key %s: %s", key, value)
			}
		}
	}
}
