package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

const identityKey contextKey = "identity"

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrMissingEmail      = errors.New("token has no email claim")
)

// Identity is the signed-in user as asserted by the identity provider's token.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

var parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}

// RequireAuth validates an HS256 bearer token and stores the caller's Identity in the context.
// Browsers cannot set headers on websocket upgrades, so a ?token= query parameter is also accepted.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := VerifyToken(r, secret)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func VerifyToken(r *http.Request, secret string) (*Identity, error) {
	tokenStr := ""
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		tokenStr = strings.TrimPrefix(authz, "Bearer ")
	} else if q := r.URL.Query().Get("token"); q != "" {
		tokenStr = q
	}
	if tokenStr == "" {
		return nil, ErrMissingAuthHeader
	}

	token, err := parseJWT(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return identityFromClaims(claims)
}

// supports flat claims and the user_metadata block OAuth providers nest profile data under
func identityFromClaims(claims jwt.MapClaims) (*Identity, error) {
	email := utils.NormalizeEmail(stringClaim(claims, "email"))
	if email == "" {
		return nil, ErrMissingEmail
	}

	identity := &Identity{
		Email:   email,
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		metaClaims := jwt.MapClaims(meta)
		if identity.Name == "" {
			identity.Name = firstNonEmpty(stringClaim(metaClaims, "name"), stringClaim(metaClaims, "full_name"))
		}
		if identity.Picture == "" {
			identity.Picture = firstNonEmpty(stringClaim(metaClaims, "picture"), stringClaim(metaClaims, "avatar_url"))
		}
	}
	return identity, nil
}

// IdentityFromContext returns nil when the request did not pass RequireAuth.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
