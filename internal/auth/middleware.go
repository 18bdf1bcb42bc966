package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/websocket"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type contextKey struct{}

var errNoToken = errors.New("no token")

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(contextKey{}).(*models.Principal)
	return p
}

// JWTMiddleware rejects requests without a valid bearer token.
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromRequest(r, jwtSecret)
			if err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalJWT lets anonymous requests through but still rejects a bad token.
func OptionalJWT(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromRequest(r, jwtSecret)
			if errors.Is(err, errNoToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoToken) {
		err = errors.New("authorization header required")
	}
	errs.Write(w, &tokenError{err})
}

type tokenError struct{ err error }

func (e *tokenError) Error() string { return e.err.Error() }
func (e *tokenError) Unwrap() error { return errs.ErrUnauthenticated }

func principalFromRequest(r *http.Request, jwtSecret string) (*models.Principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		// Browsers cannot set headers on a websocket handshake.
		if raw := r.URL.Query().Get("token"); raw != "" && websocket.IsWebSocketUpgrade(r) {
			return ParseToken(raw, jwtSecret)
		}
		return nil, errNoToken
	}

	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
		return nil, errors.New("invalid token format")
	}
	return ParseToken(bearerToken[1], jwtSecret)
}

func ParseToken(raw, jwtSecret string) (*models.Principal, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := (*claims)["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, errors.New("invalid user ID in token")
	}
	role, _ := (*claims)["role"].(string)
	if !models.Role(role).Valid() {
		return nil, errors.New("invalid role in token")
	}
	return &models.Principal{UserID: uint(userID), Role: models.Role(role)}, nil
}
