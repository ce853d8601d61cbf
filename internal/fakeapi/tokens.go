package fakeapi

import (
	"errors"
	"time"

	"github.com/go-pkgz/auth/token"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const issuer = "civicspot"

var (
	errTokenExpired = errors.New("token expired")
	errTokenNoUser  = errors.New("token carries no user")
)

// tokens issues and verifies HS256 bearer tokens
type tokens struct {
	svc *token.Service
	ttl time.Duration
	now func() time.Time
}

func newTokens(secret string, ttl time.Duration) *tokens {
	return &tokens{
		svc: token.NewService(token.Opts{
			SecretReader: token.SecretFunc(func(string) (string, error) {
				return secret, nil
			}),
			TokenDuration: ttl,
			Issuer:        issuer,
		}),
		ttl: ttl,
		now: time.Now,
	}
}

func (t *tokens) issue(a account) (string, error) {
	now := t.now()
	user := &token.User{ID: a.ID, Name: a.Name, Email: a.Email}
	user.SetAdmin(a.IsAdmin)

	return t.svc.Token(token.Claims{
		User: user,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-time.Minute).Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
		},
	})
}

// verify returns the user id carried by raw. The token service accepts
// expired tokens, so expiry is checked here.
func (t *tokens) verify(raw string) (string, error) {
	claims, err := t.svc.Parse(raw)
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt != 0 && claims.ExpiresAt < t.now().Unix() {
		return "", errTokenExpired
	}
	if claims.User == nil || claims.User.ID == "" {
		return "", errTokenNoUser
	}
	return claims.User.ID, nil
}
