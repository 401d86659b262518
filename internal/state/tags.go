package state

import (
	"context"
)

// SetTag sets or clears the match-day tag of a player. nil and "" clear.
func (d *Document) SetTag(playerID string, tag *string) {
	setEntry(d.PlayerTags, playerID, tag)
}

// Tag returns the player's match-day tag or nil.
func (d *Document) Tag(playerID string) *string {
	return entry(d.PlayerTags, playerID)
}

// SetAvatar sets or clears the avatar URL of a player. nil and "" clear.
func (d *Document) SetAvatar(playerID string, url *string) {
	setEntry(d.PlayerAvatars, playerID, url)
}

// Avatar returns the player's avatar URL or nil.
func (d *Document) Avatar(playerID string) *string {
	return entry(d.PlayerAvatars, playerID)
}

func setEntry(m map[string]string, key string, v *string) {
	if v == nil || *v == "" {
		delete(m, key)
		return
	}
	m[key] = *v
}

func entry(m map[string]string, key string) *string {
	v, ok := m[key]
	if !ok || v == "" {
		return nil
	}
	return &v
}

// SetMatchDayTag sets or clears one player's tag with a single write.
func (s *Store) SetMatchDayTag(ctx context.Context, playerID string, tag *string) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.SetTag(playerID, tag)
		return nil
	})
}

// SetMatchDayTagsBulk applies the same tag to every listed player with one
// write. An empty list neither reads nor writes.
func (s *Store) SetMatchDayTagsBulk(ctx context.Context, playerIDs []string, tag *string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return s.Update(ctx, func(doc *Document) error {
		for _, id := range playerIDs {
			doc.SetTag(id, tag)
		}
		return nil
	})
}

// MatchDayTag reads one player's tag; nil when unset.
func (s *Store) MatchDayTag(ctx context.Context, playerID string) (*string, error) {
	doc, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Tag(playerID), nil
}

// SetPlayerAvatar sets or clears one player's avatar with a single write.
func (s *Store) SetPlayerAvatar(ctx context.Context, playerID string, url *string) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.SetAvatar(playerID, url)
		return nil
	})
}
