package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"squad-backend/internal/analytics"
	"squad-backend/internal/auth"
	"squad-backend/internal/models"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type operation struct {
	method, path, summary string
	req                   any
	resp                  any
	status                int
	errors                []int
}

func operations() []operation {
	std := []int{http.StatusUnauthorized, http.StatusForbidden}
	notFound := append([]int{http.StatusNotFound}, std...)
	bad := append([]int{http.StatusBadRequest}, std...)
	ops := []operation{
		{http.MethodGet, "/healthz", "Health check", nil, HealthResponse{}, http.StatusOK, nil},
		{http.MethodPost, "/api/auth/login", "Log in", LoginRequest{}, auth.LoginResult{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}},
		{http.MethodGet, "/api/me", "Current user", nil, MeResponse{}, http.StatusOK, std},

		{http.MethodGet, "/api/players", "List players", nil, []models.PlayerProfile{}, http.StatusOK, std},
		{http.MethodPost, "/api/players", "Create player", CreatePlayerRequest{}, models.PlayerProfile{}, http.StatusCreated, append([]int{http.StatusConflict}, bad...)},
		{http.MethodGet, "/api/players/{id}", "Get player", nil, models.PlayerProfile{}, http.StatusOK, notFound},
		{http.MethodPut, "/api/players/{id}", "Update player", UpdatePlayerRequest{}, models.PlayerProfile{}, http.StatusOK, append([]int{http.StatusConflict, http.StatusNotFound}, bad...)},
		{http.MethodDelete, "/api/players/{id}", "Delete player", nil, nil, http.StatusNoContent, notFound},
		{http.MethodPut, "/api/players/{id}/match-day-tag", "Set match-day tag", MatchDayTagRequest{}, nil, http.StatusNoContent, notFound},
		{http.MethodPut, "/api/players/match-day-tags", "Set match-day tag for several players", MatchDayTagRequest{}, map[string]int{}, http.StatusOK, notFound},
		{http.MethodPost, "/api/players/{id}/avatar", "Upload avatar (multipart field \"file\")", nil, map[string]string{}, http.StatusOK, notFound},
		{http.MethodDelete, "/api/players/{id}/avatar", "Remove avatar", nil, nil, http.StatusNoContent, notFound},
		{http.MethodGet, "/api/players/{id}/notes", "List player notes", nil, []models.PlayerNote{}, http.StatusOK, notFound},
		{http.MethodPost, "/api/players/{id}/notes", "Add player note", PlayerNoteRequest{}, models.PlayerNote{}, http.StatusCreated, notFound},
		{http.MethodDelete, "/api/players/{id}/notes/{noteId}", "Delete player note", nil, nil, http.StatusNoContent, notFound},
		{http.MethodGet, "/api/players/{id}/media", "List player media", nil, []models.MediaFile{}, http.StatusOK, notFound},
		{http.MethodPost, "/api/players/{id}/media", "Upload player media (multipart field \"file\")", nil, models.MediaFile{}, http.StatusCreated, notFound},
		{http.MethodDelete, "/api/players/{id}/media/{mediaId}", "Delete player media", nil, nil, http.StatusNoContent, notFound},

		{http.MethodGet, "/api/staff", "List staff", nil, []models.Staff{}, http.StatusOK, std},
		{http.MethodPost, "/api/staff", "Create staff member", CreateStaffRequest{}, models.Staff{}, http.StatusCreated, append([]int{http.StatusConflict}, bad...)},
		{http.MethodGet, "/api/staff/{id}", "Get staff member", nil, models.Staff{}, http.StatusOK, notFound},
		{http.MethodPut, "/api/staff/{id}", "Update staff member", UpdateStaffRequest{}, models.Staff{}, http.StatusOK, append([]int{http.StatusConflict, http.StatusNotFound}, bad...)},
		{http.MethodDelete, "/api/staff/{id}", "Delete staff member", nil, nil, http.StatusNoContent, notFound},
		{http.MethodPost, "/api/staff/{id}/avatar", "Upload staff avatar (multipart field \"file\")", nil, map[string]string{}, http.StatusOK, notFound},
		{http.MethodDelete, "/api/staff/{id}/avatar", "Remove staff avatar", nil, nil, http.StatusNoContent, notFound},
		{http.MethodGet, "/api/teams", "List teams", nil, []models.Team{}, http.StatusOK, std},
		{http.MethodPost, "/api/teams", "Create team", CreateTeamRequest{}, models.Team{}, http.StatusCreated, bad},

		{http.MethodGet, "/api/events", "List events (from, to)", nil, []models.Event{}, http.StatusOK, std},
		{http.MethodPost, "/api/events", "Create event", models.Event{}, models.Event{}, http.StatusCreated, bad},
		{http.MethodGet, "/api/events/{id}", "Get event", nil, models.Event{}, http.StatusOK, notFound},
		{http.MethodPut, "/api/events/{id}", "Update event", models.Event{}, models.Event{}, http.StatusOK, notFound},
		{http.MethodDelete, "/api/events/{id}", "Delete event", nil, nil, http.StatusNoContent, notFound},

		{http.MethodGet, "/api/chat/rooms", "List my chat rooms", nil, []models.ChatRoom{}, http.StatusOK, std},
		{http.MethodPost, "/api/chat/rooms", "Create chat room", CreateChatRoomRequest{}, models.ChatRoom{}, http.StatusCreated, bad},
		{http.MethodGet, "/api/chat/rooms/{id}", "Get chat room", nil, models.ChatRoom{}, http.StatusOK, notFound},
		{http.MethodDelete, "/api/chat/rooms/{id}", "Delete chat room", nil, nil, http.StatusNoContent, notFound},
		{http.MethodPost, "/api/chat/rooms/{id}/participants", "Add chat participants", AddParticipantsRequest{}, []models.ChatParticipant{}, http.StatusOK, append([]int{http.StatusNotFound}, bad...)},
		{http.MethodDelete, "/api/chat/rooms/{id}/participants/{userId}", "Remove chat participant", nil, nil, http.StatusNoContent, notFound},
		{http.MethodGet, "/api/chat/rooms/{id}/messages", "List messages", nil, []models.ChatMessage{}, http.StatusOK, notFound},
		{http.MethodPost, "/api/chat/rooms/{id}/messages", "Post message", PostMessageRequest{}, models.ChatMessage{}, http.StatusCreated, notFound},
		{http.MethodDelete, "/api/chat/rooms/{id}/messages/{messageId}", "Delete message", nil, nil, http.StatusNoContent, notFound},

		{http.MethodGet, "/api/notifications", "List my notifications (unread, limit, offset)", nil, models.NotificationPage{}, http.StatusOK, std},
		{http.MethodPost, "/api/notifications", "Send notification", SendNotificationRequest{}, map[string]int{}, http.StatusCreated, bad},
		{http.MethodPut, "/api/notifications/{id}/read", "Mark notification read", nil, nil, http.StatusNoContent, notFound},
		{http.MethodDelete, "/api/notifications/{id}", "Delete notification", nil, nil, http.StatusNoContent, notFound},
		{http.MethodPut, "/api/notifications/read-all", "Mark all notifications read", nil, map[string]int{}, http.StatusOK, std},

		{http.MethodGet, "/api/coach-notes", "List coach notes", nil, []models.CoachNote{}, http.StatusOK, std},
		{http.MethodPost, "/api/coach-notes", "Create coach note", CoachNoteRequest{}, models.CoachNote{}, http.StatusCreated, bad},
		{http.MethodDelete, "/api/coach-notes/{id}", "Delete coach note", nil, nil, http.StatusNoContent, notFound},

		{http.MethodGet, "/api/wellness/settings", "Get wellness settings", nil, models.WellnessSettings{}, http.StatusOK, std},
		{http.MethodPut, "/api/wellness/settings", "Update wellness settings", models.WellnessSettings{}, models.WellnessSettings{}, http.StatusOK, bad},

		{http.MethodGet, "/api/analytics/daily-notes", "List daily player notes (from, to)", nil, []models.DailyPlayerNote{}, http.StatusOK, std},
		{http.MethodPost, "/api/analytics/daily-notes", "Record daily player note", DailyNoteRequest{}, models.DailyPlayerNote{}, http.StatusCreated, notFound},
		{http.MethodPost, "/api/analytics/generate", "Generate analytics for a day", GenerateRequest{}, analytics.Summary{}, http.StatusOK, bad},
		{http.MethodGet, "/api/analytics/players", "List daily player analytics (from, to)", nil, []models.DailyPlayerAnalytics{}, http.StatusOK, std},
		{http.MethodGet, "/api/analytics/events", "List daily event analytics (from, to)", nil, []models.DailyEventAnalytics{}, http.StatusOK, std},
	}
	for _, base := range []string{"/api/reports", "/api/player-reports"} {
		ops = append(ops,
			operation{http.MethodGet, base + "/folders", "List folders (parentId)", nil, []models.FolderView{}, http.StatusOK, std},
			operation{http.MethodPost, base + "/folders", "Create folder", FolderRequest{}, models.ReportFolder{}, http.StatusCreated, bad},
			operation{http.MethodPut, base + "/folders/{id}", "Rename folder or edit its description", UpdateFolderRequest{}, models.ReportFolder{}, http.StatusOK, append([]int{http.StatusNotFound}, bad...)},
			operation{http.MethodPut, base + "/folders/{id}/move", "Move folder", MoveFolderRequest{}, nil, http.StatusNoContent, notFound},
			operation{http.MethodPut, base + "/folders/{id}/visibility", "Set folder visibility", FolderVisibilityRequest{}, nil, http.StatusNoContent, notFound},
			operation{http.MethodDelete, base + "/folders/{id}", "Delete empty folder", nil, nil, http.StatusNoContent, append([]int{http.StatusConflict}, notFound...)},
			operation{http.MethodGet, base, "List reports (folderId)", nil, []models.Report{}, http.StatusOK, std},
			operation{http.MethodPost, base, "Upload report (multipart)", nil, models.Report{}, http.StatusCreated, bad},
			operation{http.MethodDelete, base + "/{id}", "Delete report", nil, nil, http.StatusNoContent, notFound},
		)
	}
	return ops
}

type idParam struct {
	ID string `path:"id"`
}

type noteParam struct {
	ID     string `path:"id"`
	NoteID string `path:"noteId"`
}

type mediaParam struct {
	ID      string `path:"id"`
	MediaID string `path:"mediaId"`
}

type messageParam struct {
	ID        string `path:"id"`
	MessageID string `path:"messageId"`
}

type participantParam struct {
	ID     string `path:"id"`
	UserID string `path:"userId"`
}

// pathParams returns the structure describing the placeholders in path.
func pathParams(path string) any {
	switch {
	case strings.Contains(path, "{noteId}"):
		return noteParam{}
	case strings.Contains(path, "{mediaId}"):
		return mediaParam{}
	case strings.Contains(path, "{messageId}"):
		return messageParam{}
	case strings.Contains(path, "{userId}"):
		return participantParam{}
	case strings.Contains(path, "{id}"):
		return idParam{}
	}
	return nil
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Squad API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Players, staff, calendar, chat, notifications, reports and analytics. " +
		"Authenticated routes take a Bearer token from /api/auth/login.")

	for _, op := range operations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if params := pathParams(op.path); params != nil {
			oc.AddReqStructure(params)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		if op.path == "/healthz" {
			oc.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
		}
		for _, code := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		_ = r.AddOperation(oc)
	}

	// GET /api/notifications/stream
	stream, _ := r.NewOperationContext(http.MethodGet, "/api/notifications/stream")
	stream.SetSummary("Notification stream")
	stream.SetDescription("Server-Sent Events stream of the caller's notifications. Pass token as query parameter.")
	stream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(stream)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
