package store

import (
	"context"
	"errors"

	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

var (
	ErrNotFound = state.ErrNotFound
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// PlayerUpdate carries the fields of a player edit; nil fields are kept.
type PlayerUpdate struct {
	Name     *string
	Email    *string
	Position *string
	Status   *models.PlayerStatus
	Password *string
}

// StaffUpdate carries the fields of a staff edit; nil fields are kept.
// Permissions, when set, replaces the whole permission set.
type StaffUpdate struct {
	FirstName   *string
	LastName    *string
	Name        *string
	Email       *string
	Password    *string
	Phone       *string
	Position    *string
	Role        *models.Role
	Permissions *models.StaffPermissions
}

// FolderUpdate renames a folder or edits its description.
type FolderUpdate struct {
	Name        *string
	Description *string
}

// Store defines the data operations the HTTP layer needs.
// LocalStore backs it with the local-dev state document, GormStore with a
// relational database. Both return ErrNotFound, ErrConflict and ErrInvalid
// (possibly wrapped) for the corresponding conditions.
type Store interface {
	// Players
	ListPlayers(ctx context.Context) ([]models.PlayerProfile, error)
	GetPlayer(ctx context.Context, id string) (*models.PlayerProfile, error)
	CreatePlayer(ctx context.Context, p *models.Player, password string) (*models.PlayerProfile, error)
	UpdatePlayer(ctx context.Context, id string, u PlayerUpdate) (*models.PlayerProfile, error)
	DeletePlayer(ctx context.Context, id string) error
	SetMatchDayTag(ctx context.Context, playerID string, tag *string) error
	SetMatchDayTags(ctx context.Context, playerIDs []string, tag *string) error
	SetPlayerAvatar(ctx context.Context, playerID string, url *string) error

	// Accounts
	FindAccount(ctx context.Context, email string) (*models.Account, error)
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	ResolveUser(ctx context.Context, userID string) (*models.Principal, error)
	SyncAccounts(ctx context.Context) error
	ListUserIDs(ctx context.Context) ([]string, error)

	// Staff and teams
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	CreateStaff(ctx context.Context, s *models.Staff, password string) error
	UpdateStaff(ctx context.Context, id string, u StaffUpdate) (*models.Staff, error)
	DeleteStaff(ctx context.Context, id string) error
	SetStaffAvatar(ctx context.Context, staffID string, url *string) error
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, t *models.Team) error

	// Events
	ListEvents(ctx context.Context, r models.DateRange) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, e *models.Event) error
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	// Chat
	ListChatRooms(ctx context.Context, userID string) ([]models.ChatRoom, error)
	CreateChatRoom(ctx context.Context, r *models.ChatRoom) error
	GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error)
	DeleteChatRoom(ctx context.Context, id string) error
	AddChatParticipants(ctx context.Context, roomID string, userIDs []string) ([]models.ChatParticipant, error)
	RemoveChatParticipant(ctx context.Context, roomID, userID string) error
	ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error)
	PostMessage(ctx context.Context, m *models.ChatMessage) error
	DeleteMessage(ctx context.Context, roomID, messageID string) error

	// Notifications
	ListNotifications(ctx context.Context, userID string, f models.NotificationFilter) (*models.NotificationPage, error)
	CreateNotifications(ctx context.Context, ns []models.Notification) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, userID, id string) error

	// Notes
	ListPlayerNotes(ctx context.Context, playerID string, visibleToPlayerOnly bool) ([]models.PlayerNote, error)
	AddPlayerNote(ctx context.Context, n *models.PlayerNote) error
	DeletePlayerNote(ctx context.Context, playerID, noteID string) error
	ListCoachNotes(ctx context.Context, viewer models.Principal) ([]models.CoachNote, error)
	CreateCoachNote(ctx context.Context, n *models.CoachNote) error
	DeleteCoachNote(ctx context.Context, id string) error

	// Reports
	ListFolders(ctx context.Context, scope models.ReportScope, parentID string, viewer models.Principal) ([]models.FolderView, error)
	CreateFolder(ctx context.Context, scope models.ReportScope, f *models.ReportFolder) error
	UpdateFolder(ctx context.Context, scope models.ReportScope, id string, u FolderUpdate) (*models.ReportFolder, error)
	MoveFolder(ctx context.Context, scope models.ReportScope, id, parentID string) error
	DeleteFolder(ctx context.Context, scope models.ReportScope, id string) error
	SetFolderVisibility(ctx context.Context, scope models.ReportScope, id string, staff, players []models.FolderAccess) error
	ListReports(ctx context.Context, scope models.ReportScope, folderID string, viewer models.Principal) ([]models.Report, error)
	CreateReport(ctx context.Context, scope models.ReportScope, r *models.Report) error
	DeleteReport(ctx context.Context, scope models.ReportScope, id string) error

	// Player media
	ListPlayerMedia(ctx context.Context, playerID string) ([]models.MediaFile, error)
	AddPlayerMedia(ctx context.Context, m *models.MediaFile) error
	DeletePlayerMedia(ctx context.Context, playerID, id string) error

	// Wellness
	WellnessSettings(ctx context.Context) (*models.WellnessSettings, error)
	UpdateWellnessSettings(ctx context.Context, s models.WellnessSettings) error

	// Analytics
	AddDailyPlayerNote(ctx context.Context, n *models.DailyPlayerNote) error
	ListDailyPlayerNotes(ctx context.Context, r models.DateRange) ([]models.DailyPlayerNote, error)
	SaveDailyAnalytics(ctx context.Context, date string, players []models.DailyPlayerAnalytics, events []models.DailyEventAnalytics) error
	ListDailyPlayerAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyPlayerAnalytics, error)
	ListDailyEventAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyEventAnalytics, error)
}
