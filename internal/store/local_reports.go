package store

import (
	"context"
	"slices"
	"sort"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

func checkScope(scope models.ReportScope) error {
	if !scope.Valid() {
		return invalid("unknown report scope " + string(scope))
	}
	return nil
}

func (l *LocalStore) ListFolders(ctx context.Context, scope models.ReportScope, parentID string, viewer models.Principal) ([]models.FolderView, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	folders := *doc.Folders(scope)
	reports := *doc.ReportList(scope)

	out := []models.FolderView{}
	for _, f := range folders {
		if f.ParentID != parentID || !f.VisibleTo(viewer) {
			continue
		}
		v := models.FolderView{ReportFolder: f}
		for _, c := range folders {
			if c.ParentID == f.ID {
				v.Count.Children++
			}
		}
		for _, r := range reports {
			if r.FolderID == f.ID && r.Active() {
				v.Count.Reports++
			}
		}
		out = append(out, v)
	}
	sortFolders(out)
	return out, nil
}

func (l *LocalStore) CreateFolder(ctx context.Context, scope models.ReportScope, f *models.ReportFolder) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := prepareFolder(f, l.now()); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		if f.ParentID != "" {
			if _, ok := doc.Folder(scope, f.ParentID); !ok {
				return invalid("parent folder " + f.ParentID + " does not exist")
			}
		}
		list := doc.Folders(scope)
		*list = append(*list, *f)
		return nil
	})
}

func (l *LocalStore) UpdateFolder(ctx context.Context, scope models.ReportScope, id string, u FolderUpdate) (*models.ReportFolder, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	var out models.ReportFolder
	err := l.update(ctx, func(doc *state.Document) error {
		f, ok := doc.Folder(scope, id)
		if !ok {
			return notFound("folder", id)
		}
		next := *f
		if err := applyFolderUpdate(&next, u, l.now()); err != nil {
			return err
		}
		*f = next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveFolder re-parents a folder. Moving a folder below itself or one of its
// descendants is rejected.
func (l *LocalStore) MoveFolder(ctx context.Context, scope models.ReportScope, id, parentID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		f, ok := doc.Folder(scope, id)
		if !ok {
			return notFound("folder", id)
		}
		if parentID != "" {
			if _, ok := doc.Folder(scope, parentID); !ok {
				return invalid("parent folder " + parentID + " does not exist")
			}
			if doc.IsDescendant(scope, parentID, id) {
				return invalid("a folder cannot be moved into itself or its subfolders")
			}
		}
		if f.ParentID == parentID {
			return state.ErrNoChange
		}
		f.ParentID = parentID
		f.UpdatedAt = l.now()
		return nil
	})
}

// DeleteFolder removes an empty folder. Folders holding subfolders or active
// reports are rejected with ErrConflict.
func (l *LocalStore) DeleteFolder(ctx context.Context, scope models.ReportScope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		list := doc.Folders(scope)
		i := slices.IndexFunc(*list, func(f models.ReportFolder) bool { return f.ID == id })
		if i < 0 {
			return notFound("folder", id)
		}
		for _, f := range *list {
			if f.ParentID == id {
				return conflict("folder has subfolders")
			}
		}
		for _, r := range *doc.ReportList(scope) {
			if r.FolderID == id && r.Active() {
				return conflict("folder contains reports")
			}
		}
		*list = slices.Delete(*list, i, i+1)
		return nil
	})
}

func (l *LocalStore) SetFolderVisibility(ctx context.Context, scope models.ReportScope, id string, staff, players []models.FolderAccess) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		f, ok := doc.Folder(scope, id)
		if !ok {
			return notFound("folder", id)
		}
		f.VisibleToStaff = prepareAccess(staff)
		f.VisibleToPlayers = prepareAccess(players)
		f.UpdatedAt = l.now()
		return nil
	})
}

// ListReports returns the active reports of a folder; an empty folderID
// lists reports outside any folder. Viewers outside the staff only see
// folders granted to their player record.
func (l *LocalStore) ListReports(ctx context.Context, scope models.ReportScope, folderID string, viewer models.Principal) ([]models.Report, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Report{}
	if !viewer.IsStaff() {
		if viewer.PlayerID == "" {
			return out, nil
		}
		if folderID != "" {
			f, ok := doc.Folder(scope, folderID)
			if !ok || !f.VisibleTo(viewer) {
				return out, nil
			}
		}
	}
	for _, r := range *doc.ReportList(scope) {
		if r.FolderID == folderID && r.Active() {
			out = append(out, r)
		}
	}
	sortReports(out)
	return out, nil
}

func (l *LocalStore) CreateReport(ctx context.Context, scope models.ReportScope, r *models.Report) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := prepareReport(r, l.now()); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		if r.FolderID != "" {
			if _, ok := doc.Folder(scope, r.FolderID); !ok {
				return invalid("folder " + r.FolderID + " does not exist")
			}
		}
		list := doc.ReportList(scope)
		*list = append(*list, *r)
		return nil
	})
}

// DeleteReport deactivates a staff report and removes a player report.
func (l *LocalStore) DeleteReport(ctx context.Context, scope models.ReportScope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		list := doc.ReportList(scope)
		i := slices.IndexFunc(*list, func(r models.Report) bool { return r.ID == id })
		if i < 0 || !(*list)[i].Active() {
			return notFound("report", id)
		}
		if scope == models.ScopePlayer {
			*list = slices.Delete(*list, i, i+1)
			return nil
		}
		inactive := false
		(*list)[i].IsActive = &inactive
		(*list)[i].UpdatedAt = l.now()
		return nil
	})
}

func (l *LocalStore) ListPlayerMedia(ctx context.Context, playerID string) ([]models.MediaFile, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Player(playerID); !ok {
		return nil, notFound("player", playerID)
	}
	out := append([]models.MediaFile{}, doc.PlayerMediaFiles[playerID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (l *LocalStore) AddPlayerMedia(ctx context.Context, m *models.MediaFile) error {
	if m.FileURL == "" {
		return invalid("file url is required")
	}
	m.ID = ids.New(ids.Media)
	m.UploadedAt = l.now()
	return l.update(ctx, func(doc *state.Document) error {
		if _, ok := doc.Player(m.PlayerID); !ok {
			return notFound("player", m.PlayerID)
		}
		doc.PlayerMediaFiles[m.PlayerID] = append(doc.PlayerMediaFiles[m.PlayerID], *m)
		return nil
	})
}

func (l *LocalStore) DeletePlayerMedia(ctx context.Context, playerID, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		files := doc.PlayerMediaFiles[playerID]
		i := slices.IndexFunc(files, func(m models.MediaFile) bool { return m.ID == id })
		if i < 0 {
			return notFound("media file", id)
		}
		doc.PlayerMediaFiles[playerID] = slices.Delete(files, i, i+1)
		return nil
	})
}

func (l *LocalStore) WellnessSettings(ctx context.Context) (*models.WellnessSettings, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	s := doc.WellnessSettings
	return &s, nil
}

func (l *LocalStore) UpdateWellnessSettings(ctx context.Context, s models.WellnessSettings) error {
	if s.CSVURL == "" {
		return invalid("csvUrl is required")
	}
	return l.update(ctx, func(doc *state.Document) error {
		doc.WellnessSettings = s
		return nil
	})
}

// AddDailyPlayerNote records a player's status for a day, replacing an
// earlier note for the same player and date.
func (l *LocalStore) AddDailyPlayerNote(ctx context.Context, n *models.DailyPlayerNote) error {
	now := l.now()
	if err := prepareDailyNote(n, now); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		p, ok := doc.Player(n.PlayerID)
		if !ok {
			return notFound("player", n.PlayerID)
		}
		if n.PlayerName == "" {
			n.PlayerName = p.Name
		}
		for i, existing := range doc.DailyPlayerNotes {
			if existing.Date == n.Date && existing.PlayerID == n.PlayerID {
				n.ID, n.CreatedAt = existing.ID, existing.CreatedAt
				doc.DailyPlayerNotes[i] = *n
				return nil
			}
		}
		n.ID = ids.New(ids.DailyNote)
		n.CreatedAt = now
		doc.DailyPlayerNotes = append(doc.DailyPlayerNotes, *n)
		return nil
	})
}

func (l *LocalStore) ListDailyPlayerNotes(ctx context.Context, r models.DateRange) ([]models.DailyPlayerNote, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.DailyPlayerNote{}
	for _, n := range doc.DailyPlayerNotes {
		if r.Contains(n.Date) {
			out = append(out, n)
		}
	}
	sortDailyNotes(out)
	return out, nil
}

// SaveDailyAnalytics replaces the analytics rows of one date. Rows matching an
// existing player or event type keep their id and creation time.
func (l *LocalStore) SaveDailyAnalytics(ctx context.Context, date string, players []models.DailyPlayerAnalytics, events []models.DailyEventAnalytics) error {
	now := l.now()
	return l.update(ctx, func(doc *state.Document) error {
		oldPlayers := map[string]models.DailyPlayerAnalytics{}
		keptPlayers := doc.DailyPlayerAnalytics[:0]
		for _, a := range doc.DailyPlayerAnalytics {
			if a.Date == date {
				oldPlayers[a.PlayerID] = a
				continue
			}
			keptPlayers = append(keptPlayers, a)
		}
		for _, a := range players {
			a.Date = date
			if old, ok := oldPlayers[a.PlayerID]; ok {
				a.ID, a.CreatedAt = old.ID, old.CreatedAt
			} else {
				a.ID, a.CreatedAt = ids.New(ids.Analytics), now
			}
			a.UpdatedAt = now
			keptPlayers = append(keptPlayers, a)
		}
		doc.DailyPlayerAnalytics = keptPlayers

		oldEvents := map[models.EventType]models.DailyEventAnalytics{}
		keptEvents := doc.DailyEventAnalytics[:0]
		for _, a := range doc.DailyEventAnalytics {
			if a.Date == date {
				oldEvents[a.EventType] = a
				continue
			}
			keptEvents = append(keptEvents, a)
		}
		for _, a := range events {
			a.Date = date
			if old, ok := oldEvents[a.EventType]; ok {
				a.ID, a.CreatedAt = old.ID, old.CreatedAt
			} else {
				a.ID, a.CreatedAt = ids.New(ids.Analytics), now
			}
			a.UpdatedAt = now
			keptEvents = append(keptEvents, a)
		}
		doc.DailyEventAnalytics = keptEvents
		return nil
	})
}

func (l *LocalStore) ListDailyPlayerAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyPlayerAnalytics, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.DailyPlayerAnalytics{}
	for _, a := range doc.DailyPlayerAnalytics {
		if r.Contains(a.Date) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out, nil
}

func (l *LocalStore) ListDailyEventAnalytics(ctx context.Context, r models.DateRange) ([]models.DailyEventAnalytics, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.DailyEventAnalytics{}
	for _, a := range doc.DailyEventAnalytics {
		if r.Contains(a.Date) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].EventType < out[j].EventType
	})
	return out, nil
}
