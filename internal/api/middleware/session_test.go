package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cubazon/storefront/internal/api/middleware"
	"github.com/cubazon/storefront/internal/config"
	"github.com/cubazon/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionMiddleware() *middleware.SessionMiddleware {
	return middleware.NewSessionMiddleware(session.NewManager(), &config.Session{
		SigningKey: "test-signing-key",
		TTL:        time.Hour,
	})
}

func TestSessionResolve(t *testing.T) {

	t.Run("Success - New Visitor Gets A Token", func(t *testing.T) {
		// Arrange
		mw := newSessionMiddleware()

		var resolved *session.Session
		handler := mw.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved = middleware.SessionFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rec, req)

		// Assert
		require.NotNil(t, resolved)
		assert.NotEmpty(t, resolved.ID)
		assert.NotEmpty(t, rec.Header().Get("X-Session-Token"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "storefront_session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("Success - Returning Visitor Keeps The Same Session", func(t *testing.T) {
		// Arrange
		mw := newSessionMiddleware()

		var first, second *session.Session
		capture := func(dst **session.Session) http.Handler {
			return mw.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*dst = middleware.SessionFromContext(r.Context())
			}))
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()
		capture(&first).ServeHTTP(rec, req)
		require.NotNil(t, first)

		token := rec.Header().Get("X-Session-Token")
		require.NotEmpty(t, token)

		// Act
		req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-Session-Token", token)
		capture(&second).ServeHTTP(httptest.NewRecorder(), req)

		// Assert
		require.NotNil(t, second)
		assert.Same(t, first, second)
	})

	t.Run("Success - Tampered Token Mints A Fresh Session", func(t *testing.T) {
		// Arrange
		mw := newSessionMiddleware()

		var resolved *session.Session
		handler := mw.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved = middleware.SessionFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-Session-Token", "not.a.token")
		rec := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rec, req)

		// Assert: invalid credentials never map to an existing session
		require.NotNil(t, resolved)
		assert.NotEmpty(t, rec.Header().Get("X-Session-Token"))
	})
}

func TestSessionFromContext(t *testing.T) {

	t.Run("Success - Nil Outside The Middleware Chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Nil(t, middleware.SessionFromContext(req.Context()))
	})
}
