package xattr

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/objlock/lib/db"
	"github.com/ValentinKolb/objlock/lib/db/engines/maple"
	"github.com/ValentinKolb/objlock/lib/store"
	"github.com/ValentinKolb/objlock/lib/store/lstore"
)

func newPool() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
}

func TestSetGetRemove(t *testing.T) {
	attrs := NewAttrStore(newPool())

	if _, ok, err := attrs.Get("obj", "a"); ok || err != nil {
		t.Fatalf("Get on missing attribute: ok=%v err=%v", ok, err)
	}

	if err := attrs.Set("obj", "a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := attrs.Set("obj", "a", []byte("2")); err != nil {
		t.Fatal(err)
	}

	val, ok, err := attrs.Get("obj", "a")
	if err != nil || !ok || !bytes.Equal(val, []byte("2")) {
		t.Errorf("Get = %s, %v, %v", val, ok, err)
	}

	// same name on another object is independent
	if _, ok, _ := attrs.Get("obj2", "a"); ok {
		t.Errorf("attribute leaked to another object")
	}

	if err := attrs.Remove("obj", "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := attrs.Get("obj", "a"); ok {
		t.Errorf("attribute still present after Remove")
	}
	if err := attrs.Remove("obj", "a"); err != nil {
		t.Errorf("removing a missing attribute must not fail: %v", err)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name   string
		set    []string
		remove []string
		want   []string
	}{
		{"empty object", nil, nil, []string{}},
		{"sorted", []string{"lock.b", "lock.a", "other"}, nil, []string{"lock.a", "lock.b", "other"}},
		{"duplicates collapse", []string{"x", "x", "x"}, nil, []string{"x"}},
		{"removed names vanish", []string{"a", "b", "c"}, []string{"b"}, []string{"a", "c"}},
		{"remove all", []string{"a"}, []string{"a"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := NewAttrStore(newPool())
			for _, n := range tt.set {
				if err := attrs.Set("obj", n, []byte(n)); err != nil {
					t.Fatal(err)
				}
			}
			for _, n := range tt.remove {
				if err := attrs.Remove("obj", n); err != nil {
					t.Fatal(err)
				}
			}

			got, err := attrs.List("obj")
			if err != nil {
				t.Fatal(err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("List = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListSkipsDanglingNames(t *testing.T) {
	pool := newPool()
	attrs := NewAttrStore(pool)

	_ = attrs.Set("obj", "a", nil)
	_ = attrs.Set("obj", "b", nil)

	// simulate an interrupted Remove: value gone, index untouched
	_ = pool.Delete(attrKey("obj", "a"))

	got, err := attrs.List("obj")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("List = %v, want [b]", got)
	}
}

func TestCorruptIndex(t *testing.T) {
	pool := newPool()
	attrs := NewAttrStore(pool)

	_ = pool.Set(indexKey("obj"), []byte{0, 0, 0, 5, 0})

	if _, err := attrs.List("obj"); !errors.Is(err, ErrCorruptIndex) {
		t.Errorf("List with corrupt index: got %v, want ErrCorruptIndex", err)
	}
	if err := attrs.Set("obj", "a", nil); !errors.Is(err, ErrCorruptIndex) {
		t.Errorf("Set with corrupt index: got %v, want ErrCorruptIndex", err)
	}
}

func TestNamesCodec(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []string
		wantErr bool
	}{
		{"empty list", encodeNames(nil), []string{}, false},
		{"round trip", encodeNames([]string{"", "a", "lock.x"}), []string{"", "a", "lock.x"}, false},
		{"short header", []byte{0, 0}, nil, true},
		{"trailing bytes", append(encodeNames([]string{"a"}), 0), nil, true},
		{"truncated name", []byte{0, 0, 0, 1, 0, 0, 0, 3, 'a'}, nil, true},
		{"huge count", []byte{0xff, 0xff, 0xff, 0xff}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeNames(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeNames err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeNames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBatchReadsOwnWrites(t *testing.T) {
	pool := newPool()
	attrs := NewAttrStore(pool)
	_ = attrs.Set("obj", "old", []byte("x"))

	b := attrs.Begin("obj")
	if err := b.Set("new", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Remove("old"); err != nil {
		t.Fatal(err)
	}

	if v, ok, _ := b.Get("new"); !ok || string(v) != "1" {
		t.Errorf("batch does not see its own write: %s, %v", v, ok)
	}
	if _, ok, _ := b.Get("old"); ok {
		t.Errorf("batch still sees a removed attribute")
	}
	if names, _ := b.List(); !reflect.DeepEqual(names, []string{"new"}) {
		t.Errorf("batch List = %v, want [new]", names)
	}

	// nothing reaches the pool before Commit
	if names, _ := attrs.List("obj"); !reflect.DeepEqual(names, []string{"old"}) {
		t.Errorf("uncommitted batch leaked: %v", names)
	}

	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}
	if names, _ := attrs.List("obj"); !reflect.DeepEqual(names, []string{"new"}) {
		t.Errorf("List after Commit = %v, want [new]", names)
	}
}

func TestBatchConflict(t *testing.T) {
	tests := []struct {
		name     string
		first    func(b *Batch) error
		conflict bool
		want     string // final value of lock.l, "" = absent
	}{
		{"same attribute", func(b *Batch) error { return b.Set("lock.l", []byte("a")) }, true, "a"},
		{"other attribute changes the index", func(b *Batch) error { return b.Set("lock.m", []byte("a")) }, true, ""},
		{"read only batch", func(b *Batch) error { _, _, err := b.Get("lock.l"); return err }, false, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := NewAttrStore(newPool())

			// both batches look at the object before either commits
			first, second := attrs.Begin("obj"), attrs.Begin("obj")
			for _, b := range []*Batch{first, second} {
				if _, ok, err := b.Get("lock.l"); ok || err != nil {
					t.Fatalf("Get = %v, %v", ok, err)
				}
				if _, err := b.List(); err != nil {
					t.Fatal(err)
				}
			}

			if err := tt.first(first); err != nil {
				t.Fatal(err)
			}
			if err := first.Commit(); err != nil {
				t.Fatal(err)
			}

			if err := second.Set("lock.l", []byte("b")); err != nil {
				t.Fatal(err)
			}
			if err := second.Commit(); tt.conflict != errors.Is(err, ErrConflict) {
				t.Fatalf("second Commit = %v, conflict expected: %v", err, tt.conflict)
			}

			v, ok, _ := attrs.Get("obj", "lock.l")
			if string(v) != tt.want || ok != (tt.want != "") {
				t.Errorf("lock.l = %q (found %v), want %q", v, ok, tt.want)
			}
		})
	}
}

func TestBatchWithoutWrites(t *testing.T) {
	attrs := NewAttrStore(newPool())
	b := attrs.Begin("obj")
	if _, err := b.List(); err != nil {
		t.Fatal(err)
	}
	if b.Dirty() {
		t.Errorf("read only batch reports pending writes")
	}
	if err := b.Commit(); err != nil {
		t.Errorf("empty Commit: %v", err)
	}
}
