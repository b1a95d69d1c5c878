// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// DefaultAuthCookieName is the cookie holding the JWT when none is configured.
const DefaultAuthCookieName = "linescore_auth"

// jwksRefreshBackoff limits refetches of the key set on unknown key ids.
const jwksRefreshBackoff = time.Minute

// keySet caches a JWKS and refetches it when a token names an unknown key.
type keySet struct {
	url   string
	fetch func(ctx context.Context, url string) (jwk.Set, error)

	mu          sync.RWMutex
	keys        jwk.Set
	lastRefresh time.Time
}

func newKeySet(url string) *keySet {
	return &keySet{
		url: url,
		fetch: func(ctx context.Context, url string) (jwk.Set, error) {
			return jwk.Fetch(ctx, url)
		},
	}
}

func (ks *keySet) refresh() error {
	if ks.url == "" {
		return fmt.Errorf("no JWKS URL provided")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	set, err := ks.fetch(ctx, ks.url)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	ks.mu.Lock()
	ks.keys = set
	ks.lastRefresh = time.Now()
	ks.mu.Unlock()
	return nil
}

func (ks *keySet) lookup(kid string) (any, error) {
	ks.mu.RLock()
	set := ks.keys
	ks.mu.RUnlock()

	if set == nil {
		return nil, fmt.Errorf("JWKS not initialized")
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to materialize key: %w", err)
	}
	return raw, nil
}

// keyFunc resolves the verification key for token, refetching the set at
// most once per backoff period.
func (ks *keySet) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing 'kid' header")
	}

	key, err := ks.lookup(kid)
	if err == nil {
		return key, nil
	}

	ks.mu.RLock()
	stale := time.Since(ks.lastRefresh) > jwksRefreshBackoff
	ks.mu.RUnlock()
	if !stale {
		return nil, err
	}
	if err := ks.refresh(); err != nil {
		log.Printf("Error refreshing JWKS: %v", err)
		return nil, err
	}
	return ks.lookup(kid)
}

// jwtAuthMiddleware identifies the caller from a JWT cookie verified against
// the configured JWKS. Requests without a valid token proceed anonymously.
func jwtAuthMiddleware(opts Options, next http.Handler) http.Handler {
	ks := newKeySet(opts.AuthJWKSURL)
	if opts.AuthJWKSURL != "" {
		if err := ks.refresh(); err != nil {
			log.Printf("Warning: Failed to fetch JWKS on startup: %v", err)
		}
	}
	cookieName := opts.AuthCookieName
	if cookieName == "" {
		cookieName = DefaultAuthCookieName
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.AuthJWKSURL == "" {
			next.ServeHTTP(w, r)
			return
		}
		email, err := ks.userFromCookie(r, cookieName)
		if err != nil && opts.Debug {
			log.Printf("JWT Validation failed: %v", err)
		}
		if email != "" {
			r = r.WithContext(withUserID(r.Context(), email))
		}
		next.ServeHTTP(w, r)
	})
}

// userFromCookie returns the email claim of the JWT in the named cookie, or
// "" when there is no cookie.
func (ks *keySet) userFromCookie(r *http.Request, cookieName string) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	token, err := jwt.Parse(cookie.Value, ks.keyFunc)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", nil
	}
	email, _ := claims["email"].(string)
	return email, nil
}
