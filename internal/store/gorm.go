package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

// playerExtra holds the per-player tag and avatar outside the players table.
type playerExtra struct {
	PlayerID    string  `gorm:"primaryKey"`
	MatchDayTag *string
	ImageURL    *string
}

type wellnessRow struct {
	ID uint `gorm:"primaryKey"`
	models.WellnessSettings
}

func (wellnessRow) TableName() string { return "wellness_settings" }

const wellnessRowID = 1

// GormStore implements Store on a relational database through GORM.
type GormStore struct {
	db       *gorm.DB
	now      func() time.Time
	hashCost int
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
		hashCost: bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost for new passwords.
func (g *GormStore) SetHashCost(cost int) { g.hashCost = cost }

// OpenPostgres opens a pooled connection through the pgx stdlib driver and
// hands it to GORM. GORM's own logging goes to logger at WARN.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	sqlDB := stdlib.OpenDB(*cfg)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening gorm: %w", err)
	}
	return db, nil
}

const (
	staffFoldersTable  = "report_folders"
	playerFoldersTable = "player_report_folders"
	staffReportsTable  = "reports"
	playerReportsTable = "player_reports"
)

func folderTable(scope models.ReportScope) string {
	if scope == models.ScopePlayer {
		return playerFoldersTable
	}
	return staffFoldersTable
}

func reportTable(scope models.ReportScope) string {
	if scope == models.ScopePlayer {
		return playerReportsTable
	}
	return staffReportsTable
}

// Migrate creates or updates every table.
func (g *GormStore) Migrate(ctx context.Context) error {
	db := g.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.Player{}, &models.PlayerUser{}, &playerExtra{},
		&models.Staff{}, &models.Team{}, &models.Event{},
		&models.ChatRoom{}, &models.ChatMessage{}, &models.Notification{},
		&models.PlayerNote{}, &models.CoachNote{}, &models.MediaFile{},
		&wellnessRow{},
		&models.DailyPlayerNote{}, &models.DailyPlayerAnalytics{}, &models.DailyEventAnalytics{},
	); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	for _, t := range []string{staffFoldersTable, playerFoldersTable} {
		if err := db.Table(t).AutoMigrate(&models.ReportFolder{}); err != nil {
			return fmt.Errorf("migrating %s: %w", t, err)
		}
	}
	for _, t := range []string{staffReportsTable, playerReportsTable} {
		if err := db.Table(t).AutoMigrate(&models.Report{}); err != nil {
			return fmt.Errorf("migrating %s: %w", t, err)
		}
	}
	return nil
}

func gormErr(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return err
}

func (g *GormStore) profiles(ctx context.Context, players []models.Player) ([]models.PlayerProfile, error) {
	idList := make([]string, len(players))
	for i, p := range players {
		idList[i] = p.ID
	}
	var extras []playerExtra
	var users []models.PlayerUser
	if len(idList) > 0 {
		if err := g.db.WithContext(ctx).Where("player_id IN ?", idList).Find(&extras).Error; err != nil {
			return nil, err
		}
		if err := g.db.WithContext(ctx).Select("id", "player_id").Where("player_id IN ?", idList).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	extraBy := make(map[string]playerExtra, len(extras))
	for _, e := range extras {
		extraBy[e.PlayerID] = e
	}
	accountBy := make(map[string]string, len(users))
	for _, u := range users {
		accountBy[u.PlayerID] = u.ID
	}
	out := make([]models.PlayerProfile, 0, len(players))
	for _, p := range players {
		e := extraBy[p.ID]
		out = append(out, models.NewProfile(p, e.MatchDayTag, e.ImageURL, accountBy[p.ID]))
	}
	return out, nil
}

func (g *GormStore) ListPlayers(ctx context.Context) ([]models.PlayerProfile, error) {
	var players []models.Player
	if err := g.db.WithContext(ctx).Order("created_at").Find(&players).Error; err != nil {
		return nil, err
	}
	return g.profiles(ctx, players)
}

func (g *GormStore) GetPlayer(ctx context.Context, id string) (*models.PlayerProfile, error) {
	var p models.Player
	if err := g.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, gormErr("player", id, err)
	}
	out, err := g.profiles(ctx, []models.Player{p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// gormEmailTaken reports whether email belongs to a player, player account or
// staff member other than the given player or staff member.
func gormEmailTaken(tx *gorm.DB, email, exceptPlayerID, exceptStaffID string) (bool, error) {
	email = models.NormalizeEmail(email)
	var n int64
	if err := tx.Model(&models.Player{}).Where("LOWER(email) = ? AND id <> ?", email, exceptPlayerID).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&models.PlayerUser{}).Where("LOWER(email) = ? AND player_id <> ?", email, exceptPlayerID).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&models.Staff{}).Where("LOWER(email) = ? AND id <> ?", email, exceptStaffID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *GormStore) CreatePlayer(ctx context.Context, p *models.Player, password string) (*models.PlayerProfile, error) {
	if err := validatePlayer(p); err != nil {
		return nil, err
	}
	if password == "" {
		password = state.DefaultPlayerPassword
	}
	hash, err := hashPassword(password, g.hashCost)
	if err != nil {
		return nil, err
	}
	now := g.now()
	p.ID = ids.New(ids.Player)
	p.CreatedAt, p.UpdatedAt = now, now
	first, last := models.SplitName(p.Name)

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := gormEmailTaken(tx, p.Email, "", "")
		if err != nil {
			return err
		}
		if taken {
			return conflict("email " + p.Email + " already in use")
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&models.PlayerUser{
			ID:        ids.New(ids.PlayerUser),
			Email:     p.Email,
			Password:  hash,
			FirstName: first,
			LastName:  last,
			Role:      models.RolePlayer,
			IsActive:  true,
			PlayerID:  p.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return g.GetPlayer(ctx, p.ID)
}

func (g *GormStore) UpdatePlayer(ctx context.Context, id string, u PlayerUpdate) (*models.PlayerProfile, error) {
	var hash string
	if u.Password != nil && *u.Password != "" {
		h, err := hashPassword(*u.Password, g.hashCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Player
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return gormErr("player", id, err)
		}
		if err := applyPlayerUpdate(&p, u); err != nil {
			return err
		}
		taken, err := gormEmailTaken(tx, p.Email, id, "")
		if err != nil {
			return err
		}
		if taken {
			return conflict("email " + p.Email + " already in use")
		}
		p.UpdatedAt = g.now()
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		first, last := models.SplitName(p.Name)
		updates := map[string]any{"email": p.Email, "first_name": first, "last_name": last}
		if hash != "" {
			updates["password"] = hash
		}
		return tx.Model(&models.PlayerUser{}).Where("player_id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return g.GetPlayer(ctx, id)
}

func (g *GormStore) DeletePlayer(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Player{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("player", id)
		}
		if err := tx.Delete(&playerExtra{}, "player_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.MediaFile{}, "player_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PlayerNote{}, "player_id = ?", id).Error
	})
}

func cleared(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func (g *GormStore) upsertExtras(tx *gorm.DB, column string, rows []playerExtra) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{column}),
	}).Create(&rows).Error
}

func (g *GormStore) SetMatchDayTag(ctx context.Context, playerID string, tag *string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound("player", playerID)
		}
		return g.upsertExtras(tx, "match_day_tag", []playerExtra{{PlayerID: playerID, MatchDayTag: cleared(tag)}})
	})
}

func (g *GormStore) SetMatchDayTags(ctx context.Context, playerIDs []string, tag *string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var known []string
		if err := tx.Model(&models.Player{}).Where("id IN ?", playerIDs).Pluck("id", &known).Error; err != nil {
			return err
		}
		rows := make([]playerExtra, len(known))
		for i, id := range known {
			rows[i] = playerExtra{PlayerID: id, MatchDayTag: cleared(tag)}
		}
		return g.upsertExtras(tx, "match_day_tag", rows)
	})
}

func (g *GormStore) SetPlayerAvatar(ctx context.Context, playerID string, url *string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound("player", playerID)
		}
		return g.upsertExtras(tx, "image_url", []playerExtra{{PlayerID: playerID, ImageURL: cleared(url)}})
	})
}

func playerAccountOf(u models.PlayerUser) models.Account {
	role := u.Role
	if role == "" {
		role = models.RolePlayer
	}
	return models.Account{
		UserID: u.ID, Email: u.Email, Password: u.Password,
		FirstName: u.FirstName, LastName: u.LastName,
		Role: role, IsActive: u.IsActive, PlayerID: u.PlayerID,
	}
}

func staffAccountOf(s models.Staff) models.Account {
	first, last := s.FirstName, s.LastName
	if first == "" && last == "" {
		first, last = models.SplitName(s.Name)
	}
	return models.Account{
		UserID: s.UserID(), Email: s.Email, Password: s.Password,
		FirstName: first, LastName: last,
		Role: s.LoginRole(), IsActive: true, StaffID: s.ID,
	}
}

func (g *GormStore) FindAccount(ctx context.Context, email string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, notFound("account", email)
	}
	db := g.db.WithContext(ctx)
	var u models.PlayerUser
	err := db.Where("LOWER(email) = ?", email).First(&u).Error
	if err == nil {
		a := playerAccountOf(u)
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var s models.Staff
	if err := db.Where("LOWER(email) = ?", email).First(&s).Error; err != nil {
		return nil, gormErr("account", email, err)
	}
	a := staffAccountOf(s)
	return &a, nil
}

func (g *GormStore) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	db := g.db.WithContext(ctx)
	var u models.PlayerUser
	err := db.First(&u, "id = ?", userID).Error
	if err == nil {
		a := playerAccountOf(u)
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var s models.Staff
	if err := db.Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, gormErr("account", userID, err)
	}
	a := staffAccountOf(s)
	return &a, nil
}

func (g *GormStore) ResolveUser(ctx context.Context, userID string) (*models.Principal, error) {
	a, err := g.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, notFound("user", userID)
	}
	if a.PlayerID != "" {
		var n int64
		if err := g.db.WithContext(ctx).Model(&models.Player{}).Where("id = ?", a.PlayerID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, notFound("user", userID)
		}
	}
	return &models.Principal{UserID: a.UserID, Email: a.Email, Role: a.Role, PlayerID: a.PlayerID, StaffID: a.StaffID}, nil
}

// SyncAccounts is a no-op: accounts are written together with players.
func (g *GormStore) SyncAccounts(context.Context) error { return nil }

func (g *GormStore) ListUserIDs(ctx context.Context) ([]string, error) {
	db := g.db.WithContext(ctx)
	var playerIDs, staffIDs []string
	if err := db.Model(&models.PlayerUser{}).Order("id").Pluck("id", &playerIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Staff{}).Order("user_id").Pluck("user_id", &staffIDs).Error; err != nil {
		return nil, err
	}
	return append(playerIDs, staffIDs...), nil
}

func (g *GormStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	var out []models.Staff
	if err := g.db.WithContext(ctx).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var s models.Staff
	if err := g.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, gormErr("staff", id, err)
	}
	return &s, nil
}

func (g *GormStore) CreateStaff(ctx context.Context, s *models.Staff, password string) error {
	if err := prepareStaff(s, g.now()); err != nil {
		return err
	}
	if password != "" {
		hash, err := hashPassword(password, g.hashCost)
		if err != nil {
			return err
		}
		s.Password = hash
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := gormEmailTaken(tx, s.Email, "", "")
		if err != nil {
			return err
		}
		if taken {
			return conflict("email " + s.Email + " already in use")
		}
		return tx.Create(s).Error
	})
}

func (g *GormStore) UpdateStaff(ctx context.Context, id string, u StaffUpdate) (*models.Staff, error) {
	var hash string
	if u.Password != nil && *u.Password != "" {
		h, err := hashPassword(*u.Password, g.hashCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	var s models.Staff
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, "id = ?", id).Error; err != nil {
			return gormErr("staff", id, err)
		}
		if err := applyStaffUpdate(&s, u, g.now()); err != nil {
			return err
		}
		taken, err := gormEmailTaken(tx, s.Email, "", id)
		if err != nil {
			return err
		}
		if taken {
			return conflict("email " + s.Email + " already in use")
		}
		if hash != "" {
			s.Password = hash
		}
		return tx.Save(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (g *GormStore) SetStaffAvatar(ctx context.Context, staffID string, url *string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Staff
		if err := tx.First(&s, "id = ?", staffID).Error; err != nil {
			return gormErr("staff", staffID, err)
		}
		s.ImageURL = cleared(url)
		s.UpdatedAt = g.now()
		return tx.Save(&s).Error
	})
}

func (g *GormStore) DeleteStaff(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.Staff{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("staff", id)
	}
	return nil
}

func (g *GormStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	if err := g.db.WithContext(ctx).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) CreateTeam(ctx context.Context, t *models.Team) error {
	if t.Name == "" {
		return invalid("team name is required")
	}
	now := g.now()
	t.ID = ids.New(ids.Team)
	t.CreatedAt, t.UpdatedAt = now, now
	if t.PlayerIDs == nil {
		t.PlayerIDs = []string{}
	}
	if t.StaffIDs == nil {
		t.StaffIDs = []string{}
	}
	return g.db.WithContext(ctx).Create(t).Error
}

func (g *GormStore) ListEvents(ctx context.Context, r models.DateRange) ([]models.Event, error) {
	q := g.db.WithContext(ctx)
	if r.From != "" {
		q = q.Where("date >= ?", r.From)
	}
	var all []models.Event
	if err := q.Find(&all).Error; err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(all))
	for _, e := range all {
		if r.Contains(e.Day()) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (g *GormStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := g.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, gormErr("event", id, err)
	}
	return &e, nil
}

func (g *GormStore) CreateEvent(ctx context.Context, e *models.Event) error {
	e.ID = ""
	if err := prepareEvent(e, g.now()); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Create(e).Error
}

func (g *GormStore) UpdateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		return invalid("event id is required")
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Event
		if err := tx.First(&existing, "id = ?", e.ID).Error; err != nil {
			return gormErr("event", e.ID, err)
		}
		e.CreatedAt = existing.CreatedAt
		if err := prepareEvent(e, g.now()); err != nil {
			return err
		}
		return tx.Save(e).Error
	})
}

func (g *GormStore) DeleteEvent(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("event", id)
	}
	return nil
}
