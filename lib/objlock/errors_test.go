package objlock

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/xattr"
)

func TestExecError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RetCode
	}{
		{"nil", nil, RetCSuccess},
		{"lock error passes through", errorf(RetCNotFound, "x"), RetCNotFound},
		{"wrapped lock error", fmt.Errorf("ctx: %w", ErrExists), RetCExists},
		{"invalid object", fmt.Errorf("%w: %q", objclass.ErrInvalidObject, ""), RetCInvalidArgument},
		{"commit conflict", fmt.Errorf("%w: lost", objclass.ErrConflict), RetCBusy},
		{"storage failure", errors.New("pool unreachable"), RetCIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(ExecError(tt.err)); got != tt.want {
				t.Errorf("ExecError(%v) code = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

// Another server grants the same lock between our read and our commit.
// Our grant must not be applied and the caller sees ErrBusy.
func TestLostCommitRaceIsBusy(t *testing.T) {
	h := newHarness()
	other := LockInfo{
		Type:    LockTypeExclusive,
		Lockers: map[LockerID]LockerInfo{{Locker: objclass.ClientName(9), Cookie: "remote"}: {}},
	}

	err := ExecError(h.exec.Exec("obj", objclass.Origin{Name: objclass.ClientName(1)}, func(hctx objclass.Context) error {
		if err := h.class.Lock(hctx, exclusive("l", "c")); err != nil {
			return err
		}
		return xattr.NewAttrStore(h.pool).Set("obj", LockPrefix+"l", EncodeLockInfo(other))
	}))
	expectCode(t, err, RetCBusy)

	info, err := h.client(2).GetInfo("obj", "l")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := info.Lockers[LockerID{Locker: objclass.ClientName(9), Cookie: "remote"}]; !ok || len(info.Lockers) != 1 {
		t.Errorf("record after the lost race = %+v, want the remote grant only", info)
	}
}
