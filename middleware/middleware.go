package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"reelops/globals"
	"reelops/models"
	"reelops/sessions"
	"reelops/utils"
)

type AuthStatus int

const (
	Unauthenticated AuthStatus = iota
	Authenticated
	Forbidden
	Unavailable
)

// Authorization is the outcome of checking a request's session against a
// required role.
type Authorization struct {
	Status  AuthStatus
	Session models.Session
	Err     error
}

// SessionToken returns the credential presented by the request. The
// X-Session-ID header wins over the cookie.
func SessionToken(r *http.Request) string {
	if tok := r.Header.Get(globals.SessionHeaderName); tok != "" {
		return tok
	}
	if c, err := r.Cookie(globals.SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authorize resolves the request's session. An empty required role accepts
// any authenticated session.
func Authorize(ctx context.Context, store sessions.Store, r *http.Request, required models.Role) Authorization {
	token := SessionToken(r)
	if token == "" {
		return Authorization{Status: Unauthenticated, Err: models.ErrUnauthenticated}
	}
	sess, err := store.Get(ctx, token)
	if errors.Is(err, models.ErrSessionNotFound) {
		return Authorization{Status: Unauthenticated, Err: models.ErrUnauthenticated}
	}
	if err != nil {
		return Authorization{Status: Unavailable, Err: err}
	}
	if required != "" && sess.Role != required {
		return Authorization{Status: Forbidden, Session: sess, Err: models.ErrForbidden}
	}
	return Authorization{Status: Authenticated, Session: sess}
}

// Guard builds per-route session checks around a session store.
type Guard struct {
	Sessions sessions.Store
}

func NewGuard(store sessions.Store) *Guard {
	return &Guard{Sessions: store}
}

// RequireSession rejects requests without a live session with 401.
func (g *Guard) RequireSession(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authz := Authorize(r.Context(), g.Sessions, r, "")
		switch authz.Status {
		case Authenticated:
			next(w, r.WithContext(WithSession(r.Context(), authz.Session)), ps)
		case Unavailable:
			log.Printf("session lookup failed: %v", authz.Err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Session store unavailable")
		default:
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		}
	}
}

// RequireAdmin lets only Admin sessions through. Anything else, a missing
// session included, gets 403.
func (g *Guard) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authz := Authorize(r.Context(), g.Sessions, r, models.RoleAdmin)
		switch authz.Status {
		case Authenticated:
			next(w, r.WithContext(WithSession(r.Context(), authz.Session)), ps)
		case Unavailable:
			log.Printf("session lookup failed: %v", authz.Err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Session store unavailable")
		default:
			utils.RespondWithError(w, http.StatusForbidden, "Admin access required")
		}
	}
}

func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, globals.SessionKey, s)
}

func SessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(globals.SessionKey).(models.Session)
	return s, ok
}
