package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

// LocalStore implements Store over the local-dev state document. Every
// mutation is one state.Store.Update cycle, so concurrent requests in this
// process do not lose updates.
type LocalStore struct {
	state *state.Store
	now   func() time.Time
}

func NewLocalStore(s *state.Store) *LocalStore {
	return &LocalStore{
		state: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ Store = (*LocalStore)(nil)

func (l *LocalStore) read(ctx context.Context) (*state.Document, error) {
	return l.state.Read(ctx)
}

func (l *LocalStore) update(ctx context.Context, fn func(*state.Document) error) error {
	err := l.state.Update(ctx, fn)
	if errors.Is(err, state.ErrEmailTaken) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func profile(doc *state.Document, p models.Player) models.PlayerProfile {
	var accountID string
	if u, ok := doc.AccountForPlayer(p.ID); ok {
		accountID = u.ID
	}
	return models.NewProfile(p, doc.Tag(p.ID), doc.Avatar(p.ID), accountID)
}

func (l *LocalStore) ListPlayers(ctx context.Context) ([]models.PlayerProfile, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PlayerProfile, 0, len(doc.Players))
	for _, p := range doc.Players {
		out = append(out, profile(doc, p))
	}
	return out, nil
}

func (l *LocalStore) GetPlayer(ctx context.Context, id string) (*models.PlayerProfile, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := doc.Player(id)
	if !ok {
		return nil, notFound("player", id)
	}
	pr := profile(doc, *p)
	return &pr, nil
}

func emailTaken(doc *state.Document, email, exceptPlayerID string) bool {
	email = models.NormalizeEmail(email)
	for _, p := range doc.Players {
		if p.ID != exceptPlayerID && models.NormalizeEmail(p.Email) == email {
			return true
		}
	}
	a, ok := doc.AccountByEmail(email)
	return ok && (exceptPlayerID == "" || a.PlayerID != exceptPlayerID)
}

func (l *LocalStore) CreatePlayer(ctx context.Context, p *models.Player, password string) (*models.PlayerProfile, error) {
	if err := validatePlayer(p); err != nil {
		return nil, err
	}
	if password == "" {
		password = state.DefaultPlayerPassword
	}
	hash, err := l.state.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := l.now()
	p.ID = ids.New(ids.Player)
	p.CreatedAt, p.UpdatedAt = now, now

	var out models.PlayerProfile
	err = l.update(ctx, func(doc *state.Document) error {
		if emailTaken(doc, p.Email, "") {
			return conflict("email " + p.Email + " already in use")
		}
		doc.Players = append(doc.Players, *p)
		if err := doc.SyncPlayerAccount(p.ID, p.Email, p.Name, hash); err != nil {
			return err
		}
		out = profile(doc, *p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *LocalStore) UpdatePlayer(ctx context.Context, id string, u PlayerUpdate) (*models.PlayerProfile, error) {
	var hash string
	if u.Password != nil && *u.Password != "" {
		h, err := l.state.HashPassword(*u.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	var out models.PlayerProfile
	err := l.update(ctx, func(doc *state.Document) error {
		p, ok := doc.Player(id)
		if !ok {
			return notFound("player", id)
		}
		next := *p
		if err := applyPlayerUpdate(&next, u); err != nil {
			return err
		}
		if emailTaken(doc, next.Email, id) {
			return conflict("email " + next.Email + " already in use")
		}
		next.UpdatedAt = l.now()
		*p = next
		if err := doc.SyncPlayerAccount(id, p.Email, p.Name, hash); err != nil {
			return err
		}
		out = profile(doc, *p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlayer removes the player and its derived entries. Accounts,
// notifications and event participants keep their dangling references.
func (l *LocalStore) DeletePlayer(ctx context.Context, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.Players, func(p models.Player) bool { return p.ID == id })
		if i < 0 {
			return notFound("player", id)
		}
		doc.Players = slices.Delete(doc.Players, i, i+1)
		doc.SetTag(id, nil)
		doc.SetAvatar(id, nil)
		delete(doc.PlayerMediaFiles, id)
		delete(doc.PlayerNotes, id)
		return nil
	})
}

func (l *LocalStore) SetMatchDayTag(ctx context.Context, playerID string, tag *string) error {
	return l.update(ctx, func(doc *state.Document) error {
		if _, ok := doc.Player(playerID); !ok {
			return notFound("player", playerID)
		}
		doc.SetTag(playerID, tag)
		return nil
	})
}

// SetMatchDayTags tags every listed player in one write. Unknown ids are
// skipped; an empty list touches nothing.
func (l *LocalStore) SetMatchDayTags(ctx context.Context, playerIDs []string, tag *string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return l.update(ctx, func(doc *state.Document) error {
		for _, id := range playerIDs {
			if _, ok := doc.Player(id); ok {
				doc.SetTag(id, tag)
			}
		}
		return nil
	})
}

func (l *LocalStore) SetPlayerAvatar(ctx context.Context, playerID string, url *string) error {
	return l.update(ctx, func(doc *state.Document) error {
		if _, ok := doc.Player(playerID); !ok {
			return notFound("player", playerID)
		}
		doc.SetAvatar(playerID, url)
		return nil
	})
}

func (l *LocalStore) FindAccount(ctx context.Context, email string) (*models.Account, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := doc.AccountByEmail(email)
	if !ok {
		return nil, notFound("account", email)
	}
	return &a, nil
}

func (l *LocalStore) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := doc.Account(userID)
	if !ok {
		return nil, notFound("account", userID)
	}
	return &a, nil
}

func (l *LocalStore) ResolveUser(ctx context.Context, userID string) (*models.Principal, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := doc.ResolveUser(userID)
	if !ok {
		return nil, notFound("user", userID)
	}
	return &p, nil
}

func (l *LocalStore) SyncAccounts(ctx context.Context) error {
	return l.state.InitializePlayerUsers(ctx)
}

func (l *LocalStore) ListUserIDs(ctx context.Context) ([]string, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.UserIDs(), nil
}

func (l *LocalStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Staff, nil
}

func (l *LocalStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := doc.Staffer(id)
	if !ok {
		return nil, notFound("staff", id)
	}
	return s, nil
}

func (l *LocalStore) CreateStaff(ctx context.Context, s *models.Staff, password string) error {
	if err := prepareStaff(s, l.now()); err != nil {
		return err
	}
	if password != "" {
		hash, err := l.state.HashPassword(password)
		if err != nil {
			return err
		}
		s.Password = hash
	}
	return l.update(ctx, func(doc *state.Document) error {
		if _, ok := doc.AccountByEmail(s.Email); ok {
			return conflict("email " + s.Email + " already in use")
		}
		doc.Staff = append(doc.Staff, *s)
		return nil
	})
}

func staffEmailTaken(doc *state.Document, email, exceptUserID string) bool {
	email = models.NormalizeEmail(email)
	for _, p := range doc.Players {
		if models.NormalizeEmail(p.Email) == email {
			return true
		}
	}
	a, ok := doc.AccountByEmail(email)
	return ok && a.UserID != exceptUserID
}

func (l *LocalStore) UpdateStaff(ctx context.Context, id string, u StaffUpdate) (*models.Staff, error) {
	var hash string
	if u.Password != nil && *u.Password != "" {
		h, err := l.state.HashPassword(*u.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	var out models.Staff
	err := l.update(ctx, func(doc *state.Document) error {
		s, ok := doc.Staffer(id)
		if !ok {
			return notFound("staff", id)
		}
		next := *s
		if err := applyStaffUpdate(&next, u, l.now()); err != nil {
			return err
		}
		if staffEmailTaken(doc, next.Email, next.UserID()) {
			return conflict("email " + next.Email + " already in use")
		}
		if hash != "" {
			next.Password = hash
		}
		*s = next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *LocalStore) SetStaffAvatar(ctx context.Context, staffID string, url *string) error {
	return l.update(ctx, func(doc *state.Document) error {
		s, ok := doc.Staffer(staffID)
		if !ok {
			return notFound("staff", staffID)
		}
		s.ImageURL = cleared(url)
		s.UpdatedAt = l.now()
		return nil
	})
}

func (l *LocalStore) DeleteStaff(ctx context.Context, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.Staff, func(s models.Staff) bool { return s.ID == id })
		if i < 0 {
			return notFound("staff", id)
		}
		doc.Staff = slices.Delete(doc.Staff, i, i+1)
		return nil
	})
}

func (l *LocalStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Teams, nil
}

func (l *LocalStore) CreateTeam(ctx context.Context, t *models.Team) error {
	if t.Name == "" {
		return invalid("team name is required")
	}
	now := l.now()
	t.ID = ids.New(ids.Team)
	t.CreatedAt, t.UpdatedAt = now, now
	if t.PlayerIDs == nil {
		t.PlayerIDs = []string{}
	}
	if t.StaffIDs == nil {
		t.StaffIDs = []string{}
	}
	return l.update(ctx, func(doc *state.Document) error {
		doc.Teams = append(doc.Teams, *t)
		return nil
	})
}

func (l *LocalStore) ListEvents(ctx context.Context, r models.DateRange) ([]models.Event, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(doc.Events))
	for _, e := range doc.Events {
		if r.Contains(e.Day()) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (l *LocalStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Events {
		if doc.Events[i].ID == id {
			return &doc.Events[i], nil
		}
	}
	return nil, notFound("event", id)
}

func (l *LocalStore) CreateEvent(ctx context.Context, e *models.Event) error {
	e.ID = ""
	if err := prepareEvent(e, l.now()); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		doc.Events = append(doc.Events, *e)
		return nil
	})
}

func (l *LocalStore) UpdateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		return invalid("event id is required")
	}
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.Events, func(x models.Event) bool { return x.ID == e.ID })
		if i < 0 {
			return notFound("event", e.ID)
		}
		e.CreatedAt = doc.Events[i].CreatedAt
		if err := prepareEvent(e, l.now()); err != nil {
			return err
		}
		doc.Events[i] = *e
		return nil
	})
}

func (l *LocalStore) DeleteEvent(ctx context.Context, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.Events, func(x models.Event) bool { return x.ID == id })
		if i < 0 {
			return notFound("event", id)
		}
		doc.Events = slices.Delete(doc.Events, i, i+1)
		return nil
	})
}
