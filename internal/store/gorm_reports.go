package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
)

const activeReport = "(is_active IS NULL OR is_active = ?)"

func (g *GormStore) folder(db *gorm.DB, scope models.ReportScope, id string) (*models.ReportFolder, error) {
	var f models.ReportFolder
	if err := db.Table(folderTable(scope)).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, gormErr("folder", id, err)
	}
	return &f, nil
}

func (g *GormStore) ListFolders(ctx context.Context, scope models.ReportScope, parentID string, viewer models.Principal) ([]models.FolderView, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	db := g.db.WithContext(ctx)
	var folders []models.ReportFolder
	if err := db.Table(folderTable(scope)).Where("parent_id = ?", parentID).Find(&folders).Error; err != nil {
		return nil, err
	}
	out := []models.FolderView{}
	for _, f := range folders {
		if !f.VisibleTo(viewer) {
			continue
		}
		var children, reports int64
		if err := db.Table(folderTable(scope)).Where("parent_id = ?", f.ID).Count(&children).Error; err != nil {
			return nil, err
		}
		if err := db.Table(reportTable(scope)).Where("folder_id = ? AND "+activeReport, f.ID, true).Count(&reports).Error; err != nil {
			return nil, err
		}
		out = append(out, models.FolderView{
			ReportFolder: f,
			Count:        models.FolderCount{Reports: int(reports), Children: int(children)},
		})
	}
	sortFolders(out)
	return out, nil
}

func (g *GormStore) CreateFolder(ctx context.Context, scope models.ReportScope, f *models.ReportFolder) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := prepareFolder(f, g.now()); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if f.ParentID != "" {
			if _, err := g.folder(tx, scope, f.ParentID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return invalid("parent folder " + f.ParentID + " does not exist")
				}
				return err
			}
		}
		return tx.Table(folderTable(scope)).Create(f).Error
	})
}

func (g *GormStore) UpdateFolder(ctx context.Context, scope models.ReportScope, id string, u FolderUpdate) (*models.ReportFolder, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	var out *models.ReportFolder
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := g.folder(tx, scope, id)
		if err != nil {
			return err
		}
		if err := applyFolderUpdate(f, u, g.now()); err != nil {
			return err
		}
		out = f
		return tx.Table(folderTable(scope)).Save(f).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) MoveFolder(ctx context.Context, scope models.ReportScope, id, parentID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := g.folder(tx, scope, id); err != nil {
			return err
		}
		seen := map[string]bool{}
		for cur := parentID; cur != "" && !seen[cur]; {
			if cur == id {
				return invalid("a folder cannot be moved into itself or its subfolders")
			}
			seen[cur] = true
			p, err := g.folder(tx, scope, cur)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return invalid("parent folder " + cur + " does not exist")
				}
				return err
			}
			cur = p.ParentID
		}
		return tx.Table(folderTable(scope)).Where("id = ?", id).
			Updates(map[string]any{"parent_id": parentID, "updated_at": g.now()}).Error
	})
}

func (g *GormStore) DeleteFolder(ctx context.Context, scope models.ReportScope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := g.folder(tx, scope, id); err != nil {
			return err
		}
		var n int64
		if err := tx.Table(folderTable(scope)).Where("parent_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflict("folder has subfolders")
		}
		if err := tx.Table(reportTable(scope)).Where("folder_id = ? AND "+activeReport, id, true).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflict("folder contains reports")
		}
		return tx.Table(folderTable(scope)).Where("id = ?", id).Delete(&models.ReportFolder{}).Error
	})
}

func (g *GormStore) SetFolderVisibility(ctx context.Context, scope models.ReportScope, id string, staff, players []models.FolderAccess) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := g.folder(tx, scope, id)
		if err != nil {
			return err
		}
		f.VisibleToStaff = prepareAccess(staff)
		f.VisibleToPlayers = prepareAccess(players)
		f.UpdatedAt = g.now()
		return tx.Table(folderTable(scope)).Save(f).Error
	})
}

// ListReports applies the same folder grants as LocalStore.ListReports.
func (g *GormStore) ListReports(ctx context.Context, scope models.ReportScope, folderID string, viewer models.Principal) ([]models.Report, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	db := g.db.WithContext(ctx)
	out := []models.Report{}
	if !viewer.IsStaff() {
		if viewer.PlayerID == "" {
			return out, nil
		}
		if folderID != "" {
			f, err := g.folder(db, scope, folderID)
			if errors.Is(err, ErrNotFound) {
				return out, nil
			}
			if err != nil {
				return nil, err
			}
			if !f.VisibleTo(viewer) {
				return out, nil
			}
		}
	}
	err := db.Table(reportTable(scope)).
		Where("folder_id = ? AND "+activeReport, folderID, true).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) CreateReport(ctx context.Context, scope models.ReportScope, r *models.Report) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := prepareReport(r, g.now()); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.FolderID != "" {
			if _, err := g.folder(tx, scope, r.FolderID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return invalid("folder " + r.FolderID + " does not exist")
				}
				return err
			}
		}
		return tx.Table(reportTable(scope)).Create(r).Error
	})
}

func (g *GormStore) DeleteReport(ctx context.Context, scope models.ReportScope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	q := g.db.WithContext(ctx).Table(reportTable(scope)).Where("id = ? AND "+activeReport, id, true)
	var res *gorm.DB
	if scope == models.ScopePlayer {
		res = q.Delete(&models.Report{})
	} else {
		res = q.Updates(map[string]any{"is_active": false, "updated_at": g.now()})
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("report", id)
	}
	return nil
}

func (g *GormStore) ListPlayerMedia(ctx context.Context, playerID string) ([]models.MediaFile, error) {
	db := g.db.WithContext(ctx)
	ok, err := g.playerExists(db, playerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("player", playerID)
	}
	out := []models.MediaFile{}
	if err := db.Where("player_id = ?", playerID).Order("uploaded_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) AddPlayerMedia(ctx context.Context, m *models.MediaFile) error {
	if m.FileURL == "" {
		return invalid("file url is required")
	}
	db := g.db.WithContext(ctx)
	ok, err := g.playerExists(db, m.PlayerID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("player", m.PlayerID)
	}
	m.ID = ids.New(ids.Media)
	m.UploadedAt = g.now()
	return db.Create(m).Error
}

func (g *GormStore) DeletePlayerMedia(ctx context.Context, playerID, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.MediaFile{}, "id = ? AND player_id = ?", id, playerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("media file", id)
	}
	return nil
}

func (g *GormStore) WellnessSettings(ctx context.Context) (*models.WellnessSettings, error) {
	var row wellnessRow
	err := g.db.WithContext(ctx).First(&row, wellnessRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s := models.DefaultWellnessSettings()
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.WellnessSettings, nil
}

func (g *GormStore) UpdateWellnessSettings(ctx context.Context, s models.WellnessSettings) error {
	if s.CSVURL == "" {
		return invalid("csvUrl is required")
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&wellnessRow{ID: wellnessRowID, WellnessSettings: s}).Error
}

func (g *GormStore) AddDailyPlayerNote(ctx context.Context, n *models.DailyPlayerNote) error {
	now := g.now()
	if err := prepareDailyNote(n, now); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Player
		if err := tx.First(&p, "id = ?", n.PlayerID).Error; err != nil {
			return gormErr("player", n.PlayerID, err)
		}
		if n.PlayerName == "" {
			n.PlayerName = p.Name
		}
		var existing models.DailyPlayerNote
		err := tx.Where("date = ? AND player_id = ?", n.Date, n.PlayerID).First(&existing).Error
		switch {
		case err == nil:
			n.ID, n.CreatedAt = existing.ID, existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			n.ID, n.CreatedAt = ids.New(ids.DailyNote), now
		default:
			return err
		}
		return tx.Save(n).Error
	})
}

func dateScope(q *gorm.DB, r models.DateRange) *gorm.DB {
	if r.From != "" {
		q = q.Where("date >= ?", r.From)
	}
	if r.To != "" {
		q = q.Where("date <= ?", r.To)
	}
	return q
}

func (g *GormStore) ListDailyPlayerNotes(ctx context.Context, r models.DateRange) ([]models.DailyPlayerNote, error) {
	out := []models.DailyPlayerNote{}
	if err := dateScope(g.db.WithContext(ctx), r).Order("date, player_name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) SaveDailyAnalytics(ctx context.Context, date string, players []models.DailyPlayerAnalytics, events []models.DailyEventAnalytics) error {
	now := g.now()
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldPlayers []models.DailyPlayerAnalytics
		if err := tx.Where("date = ?", date).Find(&oldPlayers).Error; err != nil {
			return err
		}
		prevPlayer := make(map[string]models.DailyPlayerAnalytics, len(oldPlayers))
		for _, a := range oldPlayers {
			prevPlayer[a.PlayerID] = a
		}
		if err := tx.Where("date = ?", date).Delete(&models.DailyPlayerAnalytics{}).Error; err != nil {
			return err
		}
		rows := make([]models.DailyPlayerAnalytics, 0, len(players))
		for _, a := range players {
			a.Date = date
			if old, ok := prevPlayer[a.PlayerID]; ok {
				a.ID, a.CreatedAt = old.ID, old.CreatedAt
			} else {
				a.ID, a.CreatedAt = ids.New(ids.Analytics), now
			}
			a.UpdatedAt = now
			rows = append(rows, a)
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		var oldEvents []models.DailyEventAnalytics
		if err := tx.Where("date = ?", date).Find(&oldEvents).Error; err != nil {
			return err
		}
		prevEvent := make(map[models.EventType]models.DailyEventAnalytics, len(oldEvents))
		for _, a := range oldEvents {
			prevEvent[a.EventType] = a
		}
		if err := tx.Where("date = ?", date).Delete(&models.DailyEventAnalytics{}).Error; err != nil {
			return err
		}
		evRows := make([]models.DailyEventAnalytics, 0, len(events))
		for _, a := range events {
			a.Date = date
			if old, ok := prevEvent[a.EventType]; ok {
				a.ID, a.CreatedAt = old.ID, old.CreatedAt
			} else {
				a.ID, a.CreatedAt = ids.New(ids.Analytics), now
			}
			a.UpdatedAt = now
			evRows = append(evRows, a)
		}
		if len(evRows) > 0 {
			return tx.Create(&evRows).Error
		}
		return nil
	})
}

func (g *GormStore) ListDailyPlayerAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyPlayerAnalytics, error) {
	out := []models.DailyPlayerAnalytics{}
	if err := dateScope(g.db.WithContext(ctx), r).Order("date, player_name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) ListDailyEventAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyEventAnalytics, error) {
	out := []models.DailyEventAnalytics{}
	if err := dateScope(g.db.WithContext(ctx), r).Order("date, event_type").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
