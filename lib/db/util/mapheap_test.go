package util

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

// TestAddItem tests adding and updating items
func TestAddItem(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("c", 50)

	if mh.Len() != 3 {
		t.Fatalf("Heap should have 3 items, but has %d", mh.Len())
	}
	for _, k := range []string{"a", "b", "c"} {
		if !mh.Contains(k) {
			t.Errorf("Heap should contain key %s", k)
		}
	}

	it, exists := mh.Peek()
	if !exists || it.Key != "c" || it.Priority != 50 {
		t.Errorf("Expected min item to be (c,50), got %v", it)
	}

	// updating keeps the item count and restores the heap property
	mh.AddItem("c", 300)
	if mh.Len() != 3 {
		t.Errorf("Update must not add an item, len=%d", mh.Len())
	}
	if it, _ = mh.Peek(); it.Key != "a" {
		t.Errorf("Min item should now be a, got %s", it.Key)
	}

	mh.AddItem("b", -5)
	if it, _ = mh.Peek(); it.Key != "b" || it.Priority != -5 {
		t.Errorf("Min item should now be (b,-5), got %v", it)
	}
}

// TestRemoveByKey tests removing items by key
func TestRemoveByKey(t *testing.T) {
	mh := NewMapHeap[int]()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	value, exists := mh.RemoveByKey(2)
	if !exists {
		t.Fatal("RemoveByKey should return true for existing key")
	}
	if value != 200 {
		t.Errorf("RemoveByKey should return value 200, got %d", value)
	}
	if mh.Len() != 2 || mh.Contains(2) {
		t.Errorf("Key 2 should be gone, len=%d", mh.Len())
	}

	if _, exists = mh.RemoveByKey(99); exists {
		t.Error("RemoveByKey should return false for non-existent key")
	}
}

// TestPopOrder tests if items are popped in ascending priority order
func TestPopOrder(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"few", 5},
		{"many", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mh := NewMapHeap[string]()
			rng := rand.New(rand.NewSource(int64(tt.n)))

			priorities := make([]int64, tt.n)
			for i := 0; i < tt.n; i++ {
				priorities[i] = rng.Int63n(10_000) - 5_000
				mh.AddItem(fmt.Sprintf("k%d", i), priorities[i])
			}
			sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

			for i, expected := range priorities {
				it, ok := mh.PopItem()
				if !ok {
					t.Fatalf("Heap empty after %d items, expected %d", i, tt.n)
				}
				if it.Priority != expected {
					t.Fatalf("Pop %d: expected priority %d, got %d", i, expected, it.Priority)
				}
				if mh.Contains(it.Key) {
					t.Fatalf("Popped key %s still indexed", it.Key)
				}
			}

			if _, ok := mh.PopItem(); ok {
				t.Errorf("PopItem on empty heap should return false")
			}
			if _, ok := mh.Peek(); ok {
				t.Errorf("Peek on empty heap should return false")
			}
		})
	}
}

// TestGetByKey tests retrieving items by key
func TestGetByKey(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("x", 100)

	it, exists := mh.GetByKey("x")
	if !exists || it.Key != "x" || it.Priority != 100 {
		t.Errorf("GetByKey returned incorrect item: %v", it)
	}

	if _, exists = mh.GetByKey("y"); exists {
		t.Error("GetByKey should return exists=false for non-existent key")
	}
}

// TestMixedOperations interleaves updates and removals and checks the heap
// still yields items in order.
func TestMixedOperations(t *testing.T) {
	mh := NewMapHeap[int]()
	expected := make(map[int]int64)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		key := rng.Intn(300)
		switch rng.Intn(3) {
		case 0, 1:
			p := rng.Int63n(1_000_000)
			mh.AddItem(key, p)
			expected[key] = p
		case 2:
			_, ok := mh.RemoveByKey(key)
			_, want := expected[key]
			if ok != want {
				t.Fatalf("RemoveByKey(%d) = %v, want %v", key, ok, want)
			}
			delete(expected, key)
		}
	}

	if mh.Len() != len(expected) {
		t.Fatalf("Expected %d items, got %d", len(expected), mh.Len())
	}

	last := int64(-1)
	for mh.Len() > 0 {
		it, _ := mh.PopItem()
		if it.Priority < last {
			t.Fatalf("Heap order violated: %d after %d", it.Priority, last)
		}
		if expected[it.Key] != it.Priority {
			t.Fatalf("Key %d has priority %d, want %d", it.Key, it.Priority, expected[it.Key])
		}
		last = it.Priority
	}
}
