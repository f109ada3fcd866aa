package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

func TestHelloAndVerify(t *testing.T) {
	clock := clockwork.NewFakeClock()
	iss, err := NewIssuer(Options{Secret: []byte("secret"), TTL: time.Hour, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	name1, tok1, err := iss.Hello(11)
	if err != nil {
		t.Fatal(err)
	}
	name2, _, _ := iss.Hello(12)

	if name1 == name2 {
		t.Errorf("two sessions got the same name %s", name1)
	}
	if name1.Type != "client" {
		t.Errorf("unexpected entity type %s", name1.Type)
	}

	got, nonce, err := iss.Verify(tok1)
	if err != nil {
		t.Fatal(err)
	}
	if got != name1 || nonce != 11 {
		t.Errorf("Verify = %s/%d, want %s/11", got, nonce, name1)
	}
}

func TestVerifyRejects(t *testing.T) {
	clock := clockwork.NewFakeClock()
	iss, _ := NewIssuer(Options{Secret: []byte("secret"), TTL: time.Minute, Clock: clock})
	other, _ := NewIssuer(Options{Secret: []byte("other"), TTL: time.Minute, Clock: clock})

	_, valid, _ := iss.Hello(1)
	_, foreign, _ := other.Hello(1)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "client.1", ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "client.1"},
	}).SignedString([]byte("secret"))

	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "nobody", ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"foreign secret", foreign},
		{"alg none", unsigned},
		{"no expiry", noExpiry},
		{"bad subject", badSubject},
		{"tampered payload", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := iss.Verify(tt.token); !errors.Is(err, ErrInvalidTicket) {
				t.Errorf("expected ErrInvalidTicket, got %v", err)
			}
		})
	}

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		if _, _, err := iss.Verify(valid); !errors.Is(err, ErrInvalidTicket) {
			t.Errorf("expected ErrInvalidTicket, got %v", err)
		}
	})
}

func TestRandomSecret(t *testing.T) {
	a, err := NewIssuer(Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewIssuer(Options{})

	_, tok, _ := a.Hello(0)
	if _, _, err := b.Verify(tok); err == nil {
		t.Errorf("issuers with random secrets must not accept each other's tickets")
	}
	if _, _, err := a.Verify(tok); err != nil {
		t.Errorf("issuer must accept its own ticket: %v", err)
	}
}
