package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"squad-backend/internal/auth"
	"squad-backend/internal/blob"
	mw "squad-backend/internal/middleware"
	"squad-backend/internal/models"
	"squad-backend/internal/notify"
	"squad-backend/internal/state"
	"squad-backend/internal/store"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the handlers are built from. Registry and
// Health are optional.
type Deps struct {
	Store      store.Store
	Auth       *auth.Authenticator
	Notify     *notify.Dispatcher
	Broker     *notify.Broker
	Blob       blob.Store
	Registry   *prometheus.Registry
	Health     map[string]HealthCheck
	CORSOrigin string
	Logger     *slog.Logger
}

type Handler struct {
	store   store.Store
	auth    *auth.Authenticator
	notify  *notify.Dispatcher
	broker  *notify.Broker
	blob    blob.Store
	reg     *prometheus.Registry
	health  map[string]HealthCheck
	cors    string
	logger  *slog.Logger
	metrics *httpMetrics
}

func New(d Deps) *Handler {
	h := &Handler{
		store:  d.Store,
		auth:   d.Auth,
		notify: d.Notify,
		broker: d.Broker,
		blob:   d.Blob,
		reg:    d.Registry,
		health: d.Health,
		cors:   d.CORSOrigin,
		logger: d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.reg != nil {
		h.metrics = newHTTPMetrics(h.reg)
	}
	return h
}

// Routes returns the complete HTTP handler.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(h.logger, h.metrics))
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS(h.cors))

	r.Get("/healthz", h.Health)
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Squad API", "/openapi.json", "/docs"))
	if h.reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.reg, promhttp.HandlerOpts{Registry: h.reg}))
	}
	if fs, ok := h.blob.(*blob.Filesystem); ok {
		if prefix := strings.TrimRight(fs.URL(""), "/"); strings.HasPrefix(prefix, "/") {
			r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", serveUploads(fs.Root())))
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)
			h.RegisterRoutes(r)
		})
	})
	return r
}

// RegisterRoutes adds the authenticated API routes to r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	staff := r.With(auth.RequireStaff)
	admin := r.With(auth.RequireAdmin)

	r.Get("/me", h.GetMe)

	r.Get("/players", h.ListPlayers)
	r.Get("/players/{id}", h.GetPlayer)
	admin.Post("/players", h.CreatePlayer)
	staff.Put("/players/{id}", h.UpdatePlayer)
	admin.Delete("/players/{id}", h.DeletePlayer)
	staff.Put("/players/{id}/match-day-tag", h.SetMatchDayTag)
	staff.Put("/players/match-day-tags", h.SetMatchDayTags)
	staff.Post("/players/{id}/avatar", h.UploadAvatar)
	staff.Delete("/players/{id}/avatar", h.DeleteAvatar)
	r.Get("/players/{id}/notes", h.ListPlayerNotes)
	staff.Post("/players/{id}/notes", h.AddPlayerNote)
	staff.Delete("/players/{id}/notes/{noteId}", h.DeletePlayerNote)
	r.Get("/players/{id}/media", h.ListPlayerMedia)
	staff.Post("/players/{id}/media", h.UploadPlayerMedia)
	staff.Delete("/players/{id}/media/{mediaId}", h.DeletePlayerMedia)

	staff.Get("/staff", h.ListStaff)
	staff.Get("/staff/{id}", h.GetStaff)
	admin.Post("/staff", h.CreateStaff)
	admin.Put("/staff/{id}", h.UpdateStaff)
	admin.Delete("/staff/{id}", h.DeleteStaff)
	staff.Post("/staff/{id}/avatar", h.UploadStaffAvatar)
	staff.Delete("/staff/{id}/avatar", h.DeleteStaffAvatar)
	r.Get("/teams", h.ListTeams)
	admin.Post("/teams", h.CreateTeam)

	r.Get("/events", h.ListEvents)
	r.Get("/events/{id}", h.GetEvent)
	staff.Post("/events", h.CreateEvent)
	staff.Put("/events/{id}", h.UpdateEvent)
	staff.Delete("/events/{id}", h.DeleteEvent)

	r.Get("/chat/rooms", h.ListChatRooms)
	r.Post("/chat/rooms", h.CreateChatRoom)
	r.Get("/chat/rooms/{id}", h.GetChatRoom)
	r.Delete("/chat/rooms/{id}", h.DeleteChatRoom)
	r.Post("/chat/rooms/{id}/participants", h.AddChatParticipants)
	r.Delete("/chat/rooms/{id}/participants/{userId}", h.RemoveChatParticipant)
	r.Get("/chat/rooms/{id}/messages", h.ListMessages)
	r.Post("/chat/rooms/{id}/messages", h.PostMessage)
	r.Delete("/chat/rooms/{id}/messages/{messageId}", h.DeleteMessage)

	r.Get("/notifications", h.ListNotifications)
	staff.Post("/notifications", h.SendNotification)
	r.Get("/notifications/stream", h.StreamNotifications)
	r.Put("/notifications/read-all", h.MarkAllNotificationsRead)
	r.Put("/notifications/{id}/read", h.MarkNotificationRead)
	r.Delete("/notifications/{id}", h.DeleteNotification)

	staff.Get("/coach-notes", h.ListCoachNotes)
	admin.Post("/coach-notes", h.CreateCoachNote)
	admin.Delete("/coach-notes/{id}", h.DeleteCoachNote)

	r.Route("/reports", func(r chi.Router) {
		r.Use(auth.RequireStaff)
		h.reportRoutes(r, models.ScopeStaff)
	})
	r.Route("/player-reports", func(r chi.Router) {
		h.reportRoutes(r, models.ScopePlayer)
	})

	r.Get("/wellness/settings", h.GetWellnessSettings)
	admin.Put("/wellness/settings", h.UpdateWellnessSettings)

	staff.Get("/analytics/daily-notes", h.ListDailyPlayerNotes)
	staff.Post("/analytics/daily-notes", h.AddDailyPlayerNote)
	admin.Post("/analytics/generate", h.GenerateAnalytics)
	staff.Get("/analytics/players", h.ListDailyPlayerAnalytics)
	staff.Get("/analytics/events", h.ListDailyEventAnalytics)
}

// serveUploads serves stored files, hiding their metadata sidecars.
func serveUploads(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".meta") || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes a request body of at most 1 MiB.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// fail maps a store error to a status. Unexpected errors are logged and
// reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		attrs := []any{"err", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context())}
		if state.IsIOError(err) {
			attrs = append(attrs, "io", true)
		}
		h.logger.Error("request failed", attrs...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func principal(r *http.Request) models.Principal {
	if p := auth.GetPrincipal(r.Context()); p != nil {
		return *p
	}
	return models.Principal{}
}

func isStaff(p models.Principal) bool { return p.IsStaff() }

func dateRange(r *http.Request) models.DateRange {
	q := r.URL.Query()
	return models.DateRange{From: q.Get("from"), To: q.Get("to")}
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
