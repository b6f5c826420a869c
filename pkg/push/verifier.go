// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package push

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// BodyHashClaim carries the SHA-256 of the canonical notification body.
const BodyHashClaim = "request_body_sha256"

// DefaultMaxTokenAge is how old an issued-at claim may be.
const DefaultMaxTokenAge = 5 * time.Minute

// Verifier validates the bearer token an agent attaches to push notifications.
// The agent's JWKS is fetched lazily and cached with auto-refresh so key
// rotation is picked up.
type Verifier struct {
	jwksURL string
	cache   *jwk.Cache
	maxAge  time.Duration
	now     func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithMaxTokenAge overrides DefaultMaxTokenAge.
func WithMaxTokenAge(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier registers jwksURL in a JWKS cache bound to ctx.
// Keys are not fetched until the first notification arrives.
func NewVerifier(ctx context.Context, jwksURL string, opts ...VerifierOption) (*Verifier, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("jwks url is required")
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	v := &Verifier{
		jwksURL: jwksURL,
		cache:   cache,
		maxAge:  DefaultMaxTokenAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify checks the Authorization header value against the agent's keys,
// the token age and the body hash claim.
func (v *Verifier) Verify(ctx context.Context, authorization string, body []byte) error {
	tokenString, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return ErrMissingToken
	}

	keyset, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(v.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	issuedAt := token.IssuedAt()
	if issuedAt.IsZero() {
		return fmt.Errorf("%w: missing iat claim", ErrInvalidToken)
	}
	if v.now().Sub(issuedAt) > v.maxAge {
		return fmt.Errorf("%w: issued at %s", ErrTokenExpired, issuedAt.Format(time.RFC3339))
	}

	claim, ok := token.Get(BodyHashClaim)
	if !ok {
		return fmt.Errorf("%w: missing %s claim", ErrInvalidToken, BodyHashClaim)
	}
	expected, ok := claim.(string)
	if !ok {
		return fmt.Errorf("%w: %s claim is not a string", ErrInvalidToken, BodyHashClaim)
	}

	actual, err := BodyHash(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBodyMismatch, err)
	}
	if actual != expected {
		return ErrBodyMismatch
	}
	return nil
}

// BodyHash returns the hex SHA-256 of the canonical form of a JSON payload:
// object keys sorted, no insignificant whitespace, non-ASCII left unescaped.
func BodyHash(body []byte) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
