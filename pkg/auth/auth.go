package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/configs"
)

type SubjectKey struct{}

var ErrUnauthenticated = errors.New("unauthenticated")

type Manager struct {
	conf   *configs.Config
	logger *zap.Logger
}

func NewAuthManager(conf *configs.Config, logger *zap.Logger) *Manager {
	return &Manager{conf: conf, logger: logger}
}

// Subject returns the token subject stored by the middleware.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey{}).(string)

	return subject, ok
}

// Middleware requires an HMAC signed bearer token on every request. It passes
// requests through untouched when no secret key is configured.
func (a *Manager) Middleware(next http.Handler) http.Handler {
	if !a.conf.UsesAuth() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := a.authenticate(r.Header)
		if err != nil {
			a.logger.Info("rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			writeUnauthorized(w, err)

			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Manager) authenticate(header http.Header) (string, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrUnauthenticated, token.Header["alg"])
		}

		return []byte(a.conf.Auth.SecretKey), nil
	}

	accessToken, err := a.extractTokenFromHeader(header)
	if err != nil {
		return "", err
	}

	token, err := jwt.ParseWithClaims(*accessToken, jwt.MapClaims{}, keyFunc)
	if err != nil {
		return "", fmt.Errorf("%w: error parsing token: %w", ErrUnauthenticated, err)
	}

	claims, found := token.Claims.(jwt.MapClaims)
	if !found || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	if a.conf.Auth.Audience != "" && !claims.VerifyAudience(a.conf.Auth.Audience, true) {
		return "", fmt.Errorf("%w: token is not meant for this audience", ErrUnauthenticated)
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		subject, _ = claims["email"].(string)
	}

	if subject == "" {
		return "", fmt.Errorf("%w: unable to get subject from token", ErrUnauthenticated)
	}

	return subject, nil
}

func (a *Manager) extractTokenFromHeader(header http.Header) (*string, error) {
	authorization := header.Get("Authorization")
	if len(authorization) == 0 {
		return nil, fmt.Errorf("%w: authorization header not found", ErrUnauthenticated)
	}

	prefix := "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		prefix = "bearer "
	}

	token, found := strings.CutPrefix(authorization, prefix)
	if !found {
		return nil, fmt.Errorf("%w: authorization format must be Bearer {token}", ErrUnauthenticated)
	}

	return &token, nil
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
