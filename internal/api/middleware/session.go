package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cubazon/storefront/internal/config"
	"github.com/cubazon/storefront/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type sessionContextKey string

const SessionKey = sessionContextKey("session")

const (
	sessionCookieName = "storefront_session"
	sessionHeaderName = "X-Session-Token"
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionMiddleware resolves the caller's cart session from a signed token,
// minting a fresh one for new visitors. The session object is the explicit
// per-client context every storefront service operates on.
type SessionMiddleware struct {
	manager    *session.Manager
	signingKey []byte
	ttl        time.Duration
}

func NewSessionMiddleware(manager *session.Manager, cfg *config.Session) *SessionMiddleware {
	return &SessionMiddleware{
		manager:    manager,
		signingKey: []byte(cfg.SigningKey),
		ttl:        cfg.TTL,
	}
}

func (m *SessionMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		sessionID := m.sessionIDFromRequest(r)

		if sessionID == "" {

			sessionID = uuid.NewString()

			token, err := m.mintToken(sessionID)
			if err != nil {
				slog.Error("Failed to mint session token", slog.Any("error", err))
				http.Error(w, "session setup failed", http.StatusInternalServerError)

				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(sessionHeaderName, token)
		}

		sess := m.manager.GetOrCreate(sessionID)

		ctx := context.WithValue(r.Context(), SessionKey, sess)

		next.ServeHTTP(w, r.WithContext(ctx))

	})
}

func (m *SessionMiddleware) sessionIDFromRequest(r *http.Request) string {

	raw := r.Header.Get(sessionHeaderName)

	if raw == "" {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			raw = cookie.Value
		}
	}

	if raw == "" {
		return ""
	}

	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	return claims.SessionID
}

func (m *SessionMiddleware) mintToken(sessionID string) (string, error) {

	now := time.Now()

	claims := &sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// SessionFromContext returns the resolved session, or nil outside the
// middleware chain.
func SessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(SessionKey).(*session.Session); ok {
		return sess
	}

	return nil
}
