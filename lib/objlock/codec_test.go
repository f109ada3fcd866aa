package objlock

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

func sampleInfo() LockInfo {
	return LockInfo{
		Type: LockTypeShared,
		Tag:  "snapshot",
		Lockers: map[LockerID]LockerInfo{
			{Locker: objclass.ClientName(2), Cookie: "b"}: {
				Expiration:  time.Unix(1700000000, 123),
				Addr:        EntityAddr{Type: objclass.AddrTypeLegacy, Addr: "10.0.0.2:6800", Nonce: 7},
				Description: "backup",
			},
			{Locker: objclass.ClientName(1), Cookie: "a"}: {
				Addr: EntityAddr{Type: objclass.AddrTypeLegacy, Addr: "/run/objlock.sock"},
			},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		info LockInfo
	}{
		{"empty", LockInfo{Type: LockTypeNone, Lockers: map[LockerID]LockerInfo{}}},
		{"shared with expiration", sampleInfo()},
		{"ephemeral", LockInfo{
			Type: LockTypeExclusiveEphemeral,
			Lockers: map[LockerID]LockerInfo{
				{Locker: objclass.EntityName{Type: "osd", Num: 3}, Cookie: ""}: {Description: "ü"},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLockInfo(EncodeLockInfo(tt.info))
			if err != nil {
				t.Fatal(err)
			}
			if got.Type != tt.info.Type || got.Tag != tt.info.Tag || len(got.Lockers) != len(tt.info.Lockers) {
				t.Fatalf("got %+v, want %+v", got, tt.info)
			}
			for id, want := range tt.info.Lockers {
				li, ok := got.Lockers[id]
				if !ok {
					t.Fatalf("locker %s missing", id)
				}
				if !li.Expiration.Equal(want.Expiration) || li.Addr != want.Addr || li.Description != want.Description {
					t.Errorf("locker %s = %+v, want %+v", id, li, want)
				}
			}
		})
	}
}

func TestCodecDeterministic(t *testing.T) {
	first := EncodeLockInfo(sampleInfo())
	for i := 0; i < 20; i++ {
		if !bytes.Equal(first, EncodeLockInfo(sampleInfo())) {
			t.Fatal("encoding depends on map iteration order")
		}
	}
}

func TestCodecRejectsMalformed(t *testing.T) {
	valid := EncodeLockInfo(sampleInfo())

	// same lockers as sampleInfo under another type byte
	withType := func(typ byte) []byte {
		data := append([]byte{}, valid...)
		data[2] = typ
		return data
	}
	oneLocker := LockInfo{
		Type:    LockTypeExclusive,
		Lockers: map[LockerID]LockerInfo{{Locker: objclass.ClientName(1), Cookie: "a"}: {}},
	}
	noneWithLocker := EncodeLockInfo(oneLocker)
	noneWithLocker[2] = byte(LockTypeNone)

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"header only", valid[:3]},
		{"truncated", valid[:len(valid)-1]},
		{"trailing", append(append([]byte{}, valid...), 0)},
		{"future compat version", append([]byte{9, 9}, valid[2:]...)},
		{"huge locker count", []byte{1, 1, 1, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}},
		{"unknown type", withType(7)},
		{"unknown type without lockers", []byte{1, 1, 9, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"none with lockers", noneWithLocker},
		{"exclusive with two lockers", withType(byte(LockTypeExclusive))},
		{"ephemeral with two lockers", withType(byte(LockTypeExclusiveEphemeral))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLockInfo(tt.data); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("expected ErrCorruptRecord, got %v", err)
			}
		})
	}

	// every strict prefix of a valid record is rejected
	for i := 0; i < len(valid); i++ {
		if _, err := DecodeLockInfo(valid[:i]); err == nil {
			t.Fatalf("prefix of length %d decoded without error", i)
		}
	}
}

func TestSortedLockers(t *testing.T) {
	ids := sampleInfo().SortedLockers()
	want := []LockerID{
		{Locker: objclass.ClientName(1), Cookie: "a"},
		{Locker: objclass.ClientName(2), Cookie: "b"},
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("SortedLockers = %v, want %v", ids, want)
	}
}

func TestParseLockType(t *testing.T) {
	for _, typ := range []LockType{LockTypeNone, LockTypeExclusive, LockTypeShared, LockTypeExclusiveEphemeral} {
		got, err := ParseLockType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseLockType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseLockType("bogus"); err == nil {
		t.Errorf("expected error for unknown type")
	}
}
