// internal/server/auth.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("server: unauthenticated")

// claims is the token body. Username wins over the subject when both are set.
type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Authenticator resolves the player identity of a request. With an empty
// secret it runs in dev mode and trusts the ?user= query parameter.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// DevMode reports whether identities are taken from the query string.
func (a *Authenticator) DevMode() bool { return len(a.secret) == 0 }

// Identify returns the username for r. The token is read from the
// Authorization header or, for browser websockets, the token query parameter.
func (a *Authenticator) Identify(r *http.Request) (string, error) {
	if a.DevMode() {
		if user := strings.TrimSpace(r.URL.Query().Get("user")); user != "" {
			return user, nil
		}
		return "", ErrUnauthenticated
	}

	raw := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return "", ErrUnauthenticated
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	switch {
	case c.Username != "":
		return c.Username, nil
	case c.Subject != "":
		return c.Subject, nil
	}
	return "", fmt.Errorf("%w: token names no user", ErrUnauthenticated)
}

// IssueToken signs a token for username valid for ttl.
func (a *Authenticator) IssueToken(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
}
