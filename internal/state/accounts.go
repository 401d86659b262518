package state

import (
	"errors"
	"fmt"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
)

// ErrEmailTaken is returned when an e-mail already belongs to another account.
var ErrEmailTaken = errors.New("email already in use")

// Player returns the player with the given id.
func (d *Document) Player(id string) (*models.Player, bool) {
	for i := range d.Players {
		if d.Players[i].ID == id {
			return &d.Players[i], true
		}
	}
	return nil, false
}

// AccountForPlayer returns the login account whose playerId is playerID.
func (d *Document) AccountForPlayer(playerID string) (*models.PlayerUser, bool) {
	for i := range d.PlayerUsers {
		if d.PlayerUsers[i].PlayerID == playerID {
			return &d.PlayerUsers[i], true
		}
	}
	return nil, false
}

// Staffer returns the staff member with the given staff id.
func (d *Document) Staffer(id string) (*models.Staff, bool) {
	for i := range d.Staff {
		if d.Staff[i].ID == id {
			return &d.Staff[i], true
		}
	}
	return nil, false
}

func playerAccount(u models.PlayerUser) models.Account {
	role := u.Role
	if role == "" {
		role = models.RolePlayer
	}
	return models.Account{
		UserID:    u.ID,
		Email:     u.Email,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      role,
		IsActive:  u.IsActive,
		PlayerID:  u.PlayerID,
	}
}

func staffAccount(s models.Staff) models.Account {
	first, last := s.FirstName, s.LastName
	if first == "" && last == "" {
		first, last = models.SplitName(s.Name)
	}
	return models.Account{
		UserID:    s.UserID(),
		Email:     s.Email,
		Password:  s.Password,
		FirstName: first,
		LastName:  last,
		Role:      s.LoginRole(),
		IsActive:  true,
		StaffID:   s.ID,
	}
}

// AccountByEmail finds a player account or staff user by e-mail,
// case-insensitively. Player accounts take precedence.
func (d *Document) AccountByEmail(email string) (models.Account, bool) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return models.Account{}, false
	}
	for _, u := range d.PlayerUsers {
		if models.NormalizeEmail(u.Email) == email {
			return playerAccount(u), true
		}
	}
	for _, s := range d.Staff {
		if models.NormalizeEmail(s.Email) == email {
			return staffAccount(s), true
		}
	}
	return models.Account{}, false
}

// Account finds an account by canonical user id.
func (d *Document) Account(userID string) (models.Account, bool) {
	for _, u := range d.PlayerUsers {
		if u.ID == userID {
			return playerAccount(u), true
		}
	}
	for _, s := range d.Staff {
		if s.UserID() == userID {
			return staffAccount(s), true
		}
	}
	return models.Account{}, false
}

// ResolveUser maps a canonical user id to the principal it identifies.
// Deactivated accounts and player accounts whose player no longer exists do
// not resolve.
func (d *Document) ResolveUser(userID string) (models.Principal, bool) {
	a, ok := d.Account(userID)
	if !ok || !a.IsActive {
		return models.Principal{}, false
	}
	if a.PlayerID != "" {
		if _, ok := d.Player(a.PlayerID); !ok {
			return models.Principal{}, false
		}
	}
	return models.Principal{
		UserID:   a.UserID,
		Email:    a.Email,
		Role:     a.Role,
		PlayerID: a.PlayerID,
		StaffID:  a.StaffID,
	}, true
}

// UserIDs lists every canonical user id: player accounts, then staff users.
func (d *Document) UserIDs() []string {
	out := make([]string, 0, len(d.PlayerUsers)+len(d.Staff))
	for _, u := range d.PlayerUsers {
		out = append(out, u.ID)
	}
	for _, s := range d.Staff {
		out = append(out, s.UserID())
	}
	return out
}

func (d *Document) emailInUse(email, exceptUserID string) bool {
	a, ok := d.AccountByEmail(email)
	return ok && a.UserID != exceptUserID
}

// SeedPlayerUsers creates a default account for every player without one and
// removes accounts whose player is gone. hash produces the stored password for
// new accounts and is called once per created account.
func (d *Document) SeedPlayerUsers(hash func() (string, error)) (created, pruned int, err error) {
	players := make(map[string]bool, len(d.Players))
	for _, p := range d.Players {
		players[p.ID] = true
	}

	kept := d.PlayerUsers[:0]
	linked := make(map[string]bool, len(d.PlayerUsers))
	for _, u := range d.PlayerUsers {
		if !players[u.PlayerID] {
			pruned++
			continue
		}
		linked[u.PlayerID] = true
		kept = append(kept, u)
	}
	d.PlayerUsers = kept

	for _, p := range d.Players {
		if linked[p.ID] {
			continue
		}
		password, err := hash()
		if err != nil {
			return created, pruned, fmt.Errorf("hashing default password: %w", err)
		}
		first, last := models.SplitName(p.Name)
		d.PlayerUsers = append(d.PlayerUsers, models.PlayerUser{
			ID:        ids.New(ids.PlayerUser),
			Email:     p.Email,
			Password:  password,
			FirstName: first,
			LastName:  last,
			Role:      models.RolePlayer,
			IsActive:  true,
			PlayerID:  p.ID,
		})
		linked[p.ID] = true
		created++
	}
	return created, pruned, nil
}

// SyncPlayerAccount updates the account of playerID to match the player's
// e-mail and name, and replaces its password when passwordHash is non-empty.
// It creates the account when the player has none.
func (d *Document) SyncPlayerAccount(playerID, email, name, passwordHash string) error {
	if _, ok := d.Player(playerID); !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	first, last := models.SplitName(name)
	u, ok := d.AccountForPlayer(playerID)
	if !ok {
		if d.emailInUse(email, "") {
			return ErrEmailTaken
		}
		d.PlayerUsers = append(d.PlayerUsers, models.PlayerUser{
			ID:        ids.New(ids.PlayerUser),
			Email:     email,
			Password:  passwordHash,
			FirstName: first,
			LastName:  last,
			Role:      models.RolePlayer,
			IsActive:  true,
			PlayerID:  playerID,
		})
		return nil
	}
	if email != "" && models.NormalizeEmail(email) != models.NormalizeEmail(u.Email) {
		if d.emailInUse(email, u.ID) {
			return ErrEmailTaken
		}
		u.Email = email
	}
	if name != "" {
		u.FirstName, u.LastName = first, last
	}
	if passwordHash != "" {
		u.Password = passwordHash
	}
	return nil
}
