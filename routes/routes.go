package routes

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"reelops/auth"
	"reelops/live"
	"reelops/middleware"
	"reelops/operations"
	"reelops/ratelim"
	"reelops/utils"
)

// Deps holds the handlers the routes are bound to.
type Deps struct {
	Auth       *auth.Handler
	Operations *operations.Handler
	Guard      *middleware.Guard
	Hub        *live.Hub
	Upgrader   *websocket.Upgrader
}

// Health is a simple health check handler.
func Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", Health)
}

func AddAuthRoutes(router *httprouter.Router, d *Deps, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/login", rateLimiter.Limit(d.Auth.Login))
	router.GET("/api/check-auth", d.Auth.CheckAuth)
	router.POST("/api/logout", d.Auth.Logout)
}

func AddOperationRoutes(router *httprouter.Router, d *Deps) {
	router.POST("/api/save", d.Guard.RequireSession(d.Operations.Save))
	router.GET("/api/download", d.Guard.RequireSession(d.Operations.Download))
	router.GET("/api/download/pdf", d.Guard.RequireSession(d.Operations.DownloadPDF))
	router.POST("/api/report/verify", d.Guard.RequireSession(d.Operations.VerifyReport))
	router.POST("/api/delete", d.Guard.RequireAdmin(d.Operations.Delete))
}

func AddLiveRoutes(router *httprouter.Router, d *Deps) {
	if d.Hub == nil {
		return
	}
	upgrader := d.Upgrader
	if upgrader == nil {
		upgrader = live.NewUpgrader(nil)
	}
	router.GET("/api/live", d.Guard.RequireSession(live.WebSocketHandler(d.Hub, upgrader)))
}
