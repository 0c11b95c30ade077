package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

// SessionCookieName identifies one browser across requests. Every persisted
// client-state field is keyed on its value.
const SessionCookieName = "im_session"

const sessionCookieMaxAge = 365 * 24 * time.Hour

// BrowserSession ensures every request carries a browser session id, minting
// a cookie on first contact and stamping the id onto the context.
func BrowserSession(logg *logger.Logger, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := clientstate.WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
