package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the token fields the session lifecycle reads.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ExpiresIn returns the remaining lifetime relative to now.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// Validate returns the remaining lifetime, or ErrTokenExpired when the
// expiry is not after now.
func (c *Claims) Validate(now time.Time) (time.Duration, error) {
	left := c.ExpiresIn(now)
	if left <= 0 {
		return 0, fmt.Errorf("%w at %s", ErrTokenExpired, c.ExpiresAt.UTC().Format(time.RFC3339Nano))
	}
	return left, nil
}

// payload is the subset of the claims segment that is read. exp stays a
// json.Number so fractional seconds keep millisecond precision.
type payload struct {
	Sub string       `json:"sub"`
	Exp *json.Number `json:"exp"`
}

var parser = jwt.NewParser()

// Decode reads the claims of a compact JWT without verifying its signature.
// Only the payload segment is inspected; the header, including alg, is
// ignored. The backend stays the authority on validity.
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil, fmt.Errorf("%w: want 3 segments", ErrMalformedToken)
	}
	seg, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}
	var p payload
	if err := json.Unmarshal(seg, &p); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}
	if p.Exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	exp, err := p.Exp.Float64()
	if err != nil || math.IsNaN(exp) || math.IsInf(exp, 0) {
		return nil, fmt.Errorf("%w: exp %q", ErrMalformedToken, p.Exp.String())
	}
	return &Claims{
		Subject:   p.Sub,
		ExpiresAt: time.UnixMilli(int64(exp * 1000)),
	}, nil
}
