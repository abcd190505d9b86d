package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"swarmcore/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	sub := hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}
	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", hub.SSEHandler)

	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// Reads are public
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)
		r.Get("/swarm", h.apiSwarmSummary)
		r.Get("/robots", h.apiListRobots)
		r.Get("/robots/{id}", h.apiGetRobot)
		r.Get("/robots/{id}/queue", h.apiRobotQueue)
		r.Get("/robots/{id}/audit", h.apiRobotAudit)
		r.Get("/locations", h.apiListLocations)
		r.Get("/locations/{id}", h.apiGetLocation)
		r.Get("/queue/global", h.apiGlobalQueue)
		r.Get("/audit", h.apiListAudit)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/robots", h.apiRegisterRobot)
			r.Post("/locations", h.apiRegisterLocation)
			r.Post("/commands", h.apiEnqueueCommand)
			r.Post("/robots/{id}/assign-global", h.apiAssignGlobal)
			r.Post("/robots/{id}/pull", h.apiPullNext)
			r.Post("/robots/{id}/complete", h.apiReportCompletion)
			r.Post("/robots/{id}/expire", h.apiExpire)
			r.Post("/locations/{id}/tasks", h.apiOfferTask)
			r.Put("/locations/{id}/status", h.apiSetLocationStatus)
			r.Post("/tick", h.apiAdvanceTick)
			r.Post("/password", h.apiChangePassword)
		})
	})

	stopFn := func() {
		eng.Events.Unsubscribe(sub)
		hub.Stop()
	}
	return r, stopFn
}
