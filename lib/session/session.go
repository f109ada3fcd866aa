package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/objlock/lib/db/util"
	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const issuer = "objlock"

// ErrInvalidTicket is returned for tickets that are malformed, forged or expired
var ErrInvalidTicket = errors.New("session: invalid ticket")

// Claims are the JWT claims of a session ticket. The subject holds the
// entity name ("client.4123").
type Claims struct {
	jwt.RegisteredClaims
	Nonce uint32 `json:"nonce"`
}

// Options configures an Issuer
type Options struct {
	Secret []byte          // HMAC key (empty = random per process)
	TTL    time.Duration   // Ticket lifetime (0 = 24h)
	Clock  clockwork.Clock // Time source (nil = real clock)
}

// Issuer hands out client identities and signs and verifies their tickets
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
	next   atomic.Uint64
}

// NewIssuer creates an issuer. Client numbers start at a random offset, so
// restarts of a server with a random secret do not hand out the same names again.
func NewIssuer(opts Options) (*Issuer, error) {
	secret := opts.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	iss := &Issuer{
		secret: secret,
		ttl:    opts.TTL,
		clock:  opts.Clock,
	}
	iss.next.Store(util.GenerateSeed() >> 16)
	return iss, nil
}

// Hello allocates a new client identity and returns it with its signed ticket
func (iss *Issuer) Hello(nonce uint32) (objclass.EntityName, string, error) {
	name := objclass.ClientName(iss.next.Add(1))
	now := iss.clock.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   name.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttl)),
			ID:        strconv.FormatUint(name.Num, 36),
		},
		Nonce: nonce,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.secret)
	if err != nil {
		return objclass.EntityName{}, "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return name, token, nil
}

// Verify checks the signature and expiry of a ticket and returns the identity
// and nonce it was issued for.
func (iss *Issuer) Verify(token string) (objclass.EntityName, uint32, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return iss.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(iss.clock.Now),
	)
	if err != nil {
		return objclass.EntityName{}, 0, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	name, err := objclass.ParseEntityName(claims.Subject)
	if err != nil {
		return objclass.EntityName{}, 0, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	return name, claims.Nonce, nil
}
