// Package auth verifies Keycloak-issued bearer tokens against the realm's
// published signing keys.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dicomdesk/internal/shared/config"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// Claims carries the identity fields the portal uses from a verified token.
type Claims struct {
	Subject  string
	Username string
	Email    string
	Name     string
	Roles    []string
}

// HasRole reports whether the token carries a realm role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// KeysetFetcher retrieves the realm's current signing keys, keyed by key ID.
type KeysetFetcher interface {
	FetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error)
}

// KeycloakVerifier implements TokenVerifier with a cached realm keyset.
// Key rotation is handled by refetching once when a token references an
// unknown key ID.
type KeycloakVerifier struct {
	issuer  string
	fetcher KeysetFetcher
	logger  logger.Interface

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewKeycloakVerifier creates a verifier for the configured realm.
func NewKeycloakVerifier(cfg *config.KeycloakConfig, log logger.Interface) *KeycloakVerifier {
	return &KeycloakVerifier{
		issuer:  cfg.IssuerURL(),
		fetcher: &httpKeysetFetcher{url: cfg.JWKSURL(), client: &http.Client{Timeout: 10 * time.Second}},
		logger:  log.Named("auth"),
	}
}

// NewKeycloakVerifierWithFetcher creates a verifier with a custom keyset
// fetcher.
func NewKeycloakVerifierWithFetcher(issuer string, fetcher KeysetFetcher, log logger.Interface) *KeycloakVerifier {
	return &KeycloakVerifier{
		issuer:  issuer,
		fetcher: fetcher,
		logger:  log.Named("auth"),
	}
}

var _ TokenVerifier = (*KeycloakVerifier)(nil)

// Verify validates the token's signature, expiry and issuer and returns its
// identity claims.
func (v *KeycloakVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	token, err := jwt.Parse(rawToken,
		func(t *jwt.Token) (any, error) { return v.keyForToken(ctx, t) },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid token", err.Error())
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewUnauthorizedError("invalid token claims")
	}

	claims := &Claims{
		Subject:  claimString(mapClaims, "sub"),
		Username: claimString(mapClaims, "preferred_username"),
		Email:    claimString(mapClaims, "email"),
		Name:     claimString(mapClaims, "name"),
		Roles:    realmRoles(mapClaims),
	}
	if claims.Subject == "" {
		return nil, errors.NewUnauthorizedError("token has no subject")
	}

	return claims, nil
}

// keyForToken resolves the signing key for a token's kid header, refetching
// the keyset once when the kid is unknown.
func (v *KeycloakVerifier) keyForToken(ctx context.Context, token *jwt.Token) (*rsa.PublicKey, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("token has no key ID")
	}

	v.mu.RLock()
	key, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	keys, err := v.fetcher.FetchKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
	}

	v.mu.Lock()
	v.keys = keys
	key, ok = v.keys[kid]
	v.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown signing key %s", kid)
	}
	return key, nil
}

func claimString(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

func realmRoles(claims jwt.MapClaims) []string {
	realmAccess, _ := claims["realm_access"].(map[string]any)
	rawRoles, _ := realmAccess["roles"].([]any)

	roles := make([]string, 0, len(rawRoles))
	for _, r := range rawRoles {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// httpKeysetFetcher fetches the realm JWKS document.
type httpKeysetFetcher struct {
	url    string
	client *http.Client
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (f *httpKeysetFetcher) FetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("JWKS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		key, err := parseRSAKey(k.N, k.E)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = key
	}

	return keys, nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
