package state

import (
	"context"
)

// InitializePlayerUsers gives every player a login account and prunes
// accounts whose player was deleted. Calling it again without intervening
// changes writes nothing.
func (s *Store) InitializePlayerUsers(ctx context.Context) error {
	return s.Update(ctx, func(doc *Document) error {
		created, pruned, err := doc.SeedPlayerUsers(func() (string, error) {
			return s.HashPassword(DefaultPlayerPassword)
		})
		if err != nil {
			return err
		}
		if created == 0 && pruned == 0 {
			return ErrNoChange
		}
		s.log.Info("player accounts initialized", "created", created, "pruned", pruned)
		return nil
	})
}

// SyncPlayerAccount keeps a player's login account in step with an edit of
// the player. An empty password leaves the stored one untouched.
func (s *Store) SyncPlayerAccount(ctx context.Context, playerID, email, name, password string) error {
	var hash string
	if password != "" {
		h, err := s.HashPassword(password)
		if err != nil {
			return err
		}
		hash = h
	}
	return s.Update(ctx, func(doc *Document) error {
		return doc.SyncPlayerAccount(playerID, email, name, hash)
	})
}
