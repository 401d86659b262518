package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleCoach  Role = "COACH"
	RoleStaff  Role = "STAFF"
	RolePlayer Role = "PLAYER"
)

type PlayerStatus string

const (
	StatusFullyAvailable        PlayerStatus = "FULLY_AVAILABLE"
	StatusPartialTraining       PlayerStatus = "PARTIAL_TRAINING"
	StatusPartialTeamIndividual PlayerStatus = "PARTIAL_TEAM_INDIVIDUAL"
	StatusRehabIndividual       PlayerStatus = "REHAB_INDIVIDUAL"
	StatusNotAvailableInjury    PlayerStatus = "NOT_AVAILABLE_INJURY"
	StatusPartialIllness        PlayerStatus = "PARTIAL_ILLNESS"
	StatusNotAvailableIllness   PlayerStatus = "NOT_AVAILABLE_ILLNESS"
	StatusIndividualWork        PlayerStatus = "INDIVIDUAL_WORK"
	StatusRecovery              PlayerStatus = "RECOVERY"
	StatusNotAvailableOther     PlayerStatus = "NOT_AVAILABLE_OTHER"
	StatusDayOff                PlayerStatus = "DAY_OFF"
	StatusNationalTeam          PlayerStatus = "NATIONAL_TEAM"
	StatusPhysioTherapy         PlayerStatus = "PHYSIO_THERAPY"
)

var statusLabels = map[PlayerStatus]string{
	StatusFullyAvailable:        "Fully Available",
	StatusPartialTraining:       "Partially Available - Training",
	StatusPartialTeamIndividual: "Partially Available - Team + Individual",
	StatusRehabIndividual:       "Rehabilitation - Individual",
	StatusNotAvailableInjury:    "Unavailable - Injury",
	StatusPartialIllness:        "Partially Available - Illness",
	StatusNotAvailableIllness:   "Unavailable - Illness",
	StatusIndividualWork:        "Individual Work",
	StatusRecovery:              "Recovery",
	StatusNotAvailableOther:     "Unavailable - Other",
	StatusDayOff:                "Day Off",
	StatusNationalTeam:          "National Team",
	StatusPhysioTherapy:         "Physio Therapy",
}

// Valid reports whether s is one of the known availability statuses.
func (s PlayerStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable label used in analytics, falling back to
// the raw value for statuses written by older clients.
func (s PlayerStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Player struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name"`
	Email     string       `json:"email" gorm:"index"`
	Position  string       `json:"position,omitempty"`
	Status    PlayerStatus `json:"status,omitempty"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
	UpdatedAt time.Time    `json:"updatedAt,omitzero"`
}

// PlayerProfile is the read model returned to clients: the player record
// joined with its derived tag/avatar entries and its login account.
type PlayerProfile struct {
	Player
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	MatchDayTag *string `json:"matchDayTag"`
	ImageURL    *string `json:"imageUrl"`
	AccountID   string  `json:"accountId,omitempty"`
}

// NewProfile builds a profile for p. tag and avatar may be nil.
func NewProfile(p Player, tag, avatar *string, accountID string) PlayerProfile {
	if p.Status == "" {
		p.Status = StatusFullyAvailable
	}
	first, last := SplitName(p.Name)
	return PlayerProfile{
		Player:      p,
		FirstName:   first,
		LastName:    last,
		MatchDayTag: tag,
		ImageURL:    avatar,
		AccountID:   accountID,
	}
}

// PlayerUser is the login account attached to a player.
// PlayerID is a weak reference: nothing removes the account when the player
// goes away, lookups must treat a missing player as not found.
type PlayerUser struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Email     string `json:"email" gorm:"uniqueIndex"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"isActive"`
	PlayerID  string `json:"playerId" gorm:"index"`
}

type StaffPermissions struct {
	CanViewReports       bool `json:"canViewReports"`
	CanEditReports       bool `json:"canEditReports"`
	CanDeleteReports     bool `json:"canDeleteReports"`
	CanCreateEvents      bool `json:"canCreateEvents"`
	CanEditEvents        bool `json:"canEditEvents"`
	CanDeleteEvents      bool `json:"canDeleteEvents"`
	CanViewAllPlayers    bool `json:"canViewAllPlayers"`
	CanEditPlayers       bool `json:"canEditPlayers"`
	CanDeletePlayers     bool `json:"canDeletePlayers"`
	CanAddPlayerMedia    bool `json:"canAddPlayerMedia"`
	CanEditPlayerMedia   bool `json:"canEditPlayerMedia"`
	CanDeletePlayerMedia bool `json:"canDeletePlayerMedia"`
	CanAddPlayerNotes    bool `json:"canAddPlayerNotes"`
	CanEditPlayerNotes   bool `json:"canEditPlayerNotes"`
	CanDeletePlayerNotes bool `json:"canDeletePlayerNotes"`
	CanViewCalendar      bool `json:"canViewCalendar"`
	CanViewDashboard     bool `json:"canViewDashboard"`
	CanManageStaff       bool `json:"canManageStaff"`
}

// DefaultStaffPermissions is what a newly created staff member can do.
func DefaultStaffPermissions() StaffPermissions {
	return StaffPermissions{
		CanViewReports:    true,
		CanCreateEvents:   true,
		CanEditEvents:     true,
		CanViewAllPlayers: true,
		CanAddPlayerNotes: true,
		CanViewCalendar:   true,
		CanViewDashboard:  true,
	}
}

type StaffUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitzero"`
}

type Staff struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Name      string  `json:"name"`
	Email     string  `json:"email" gorm:"index"`
	Password  string  `json:"password,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Position  string  `json:"position,omitempty"`
	Role      Role    `json:"role,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	StaffPermissions
	User      StaffUser `json:"user" gorm:"embedded;embeddedPrefix:user_"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func (Staff) TableName() string { return "staff" }

// LoginRole is the role the staff member signs in with; STAFF unless a
// role was stored.
func (s Staff) LoginRole() Role {
	if s.Role == "" {
		return RoleStaff
	}
	return s.Role
}

// UserID is the canonical user id of the staff member.
func (s Staff) UserID() string {
	if s.User.ID != "" {
		return s.User.ID
	}
	return s.ID
}

type Team struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	PlayerIDs []string  `json:"playerIds" gorm:"serializer:json"`
	StaffIDs  []string  `json:"staffIds" gorm:"serializer:json"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Account is the login view over player accounts and staff users.
type Account struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"isActive"`
	PlayerID  string `json:"playerId,omitempty"`
	StaffID   string `json:"staffId,omitempty"`
}

func (a Account) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Principal identifies the caller of a request in the canonical user id space.
type Principal struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	PlayerID string `json:"playerId,omitempty"`
	StaffID  string `json:"staffId,omitempty"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin || p.Role == RoleCoach }

// IsStaff reports whether the principal belongs to the club staff, admins
// included.
func (p Principal) IsStaff() bool { return p.IsAdmin() || p.Role == RoleStaff }

// SplitName splits a display name into first name and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NormalizeEmail lowercases and trims an address for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
