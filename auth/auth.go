package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"reelops/middleware"
	"reelops/models"
	"reelops/sessions"
	"reelops/utils"
)

type Handler struct {
	Auth     *Authenticator
	Sessions sessions.Store
	Cookie   CookiePolicy
}

func NewHandler(a *Authenticator, store sessions.Store, cookie CookiePolicy) *Handler {
	return &Handler{Auth: a, Sessions: store, Cookie: cookie}
}

type loginInput struct {
	UserType string `json:"userType"`
	Password string `json:"password"`
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input loginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "error": "Invalid input"})
		return
	}

	role, err := h.Auth.Login(input.UserType, input.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		log.Printf("failed login attempt for %q from %s", input.UserType, r.RemoteAddr)
		utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{"success": false, "error": "Invalid password"})
		return
	}

	sess, err := h.Sessions.Create(r.Context(), role)
	if err != nil {
		log.Printf("create session: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "error": "Failed to create session"})
		return
	}

	h.Cookie.setSession(w, sess)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "userType": role})
}

// CheckAuth handles GET /api/check-auth
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	authz := middleware.Authorize(r.Context(), h.Sessions, r, "")
	switch authz.Status {
	case middleware.Authenticated:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"authenticated": true, "userType": authz.Session.Role})
	case middleware.Unavailable:
		log.Printf("check-auth session lookup: %v", authz.Err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"authenticated": false, "error": "Session store unavailable"})
	default:
		utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{"authenticated": false})
	}
}

// Logout handles POST /api/logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.Sessions.Destroy(r.Context(), token); err != nil {
			log.Printf("destroy session: %v", err)
		}
	}
	h.Cookie.clearSession(w)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
