package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const screenColumns = `id, identifier, name, location, status, last_seen, current_playlist_id, created_at`

// DefaultScreenName is the name given to a screen registering without one.
func DefaultScreenName(identifier string) string {
	short := identifier
	if len(short) > 8 {
		short = short[:8]
	}
	return "Screen-" + short
}

// RegisterScreen creates the screen or refreshes an existing one in a single
// statement, so concurrent registrations of one identifier yield one row.
// Empty name or location never overwrite stored values.
func (s *sqlStore) RegisterScreen(ctx context.Context, identifier, name, location string, now time.Time) (model.Screen, error) {
	createName := name
	if createName == "" {
		createName = DefaultScreenName(identifier)
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO screens (identifier, name, location, status, last_seen, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (identifier) DO UPDATE SET
			name      = CASE WHEN ? <> '' THEN ? ELSE screens.name END,
			location  = CASE WHEN ? <> '' THEN ? ELSE screens.location END,
			status    = excluded.status,
			last_seen = excluded.last_seen`),
		identifier, createName, location, model.StatusOnline, now, now,
		name, name,
		location, location,
	)
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("[db] RegisterScreen: failed to upsert screen")
		return model.Screen{}, fmt.Errorf("register screen: %w", err)
	}
	return s.GetScreenByIdentifier(ctx, identifier)
}

// TouchScreen marks a known screen online and refreshes last_seen.
func (s *sqlStore) TouchScreen(ctx context.Context, identifier string, now time.Time) (model.Screen, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE screens
		SET status = ?, last_seen = ?
		WHERE identifier = ?`),
		model.StatusOnline, now, identifier,
	)
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("[db] TouchScreen: failed to update screen")
		return model.Screen{}, err
	}
	if err := requireAffected(res); err != nil {
		return model.Screen{}, err
	}
	return s.GetScreenByIdentifier(ctx, identifier)
}

func (s *sqlStore) GetScreenByID(ctx context.Context, id int) (model.Screen, error) {
	var screen model.Screen
	err := s.db.GetContext(ctx, &screen, s.q(`SELECT `+screenColumns+` FROM screens WHERE id = ?`), id)
	return screen, notFound(err)
}

func (s *sqlStore) GetScreenByIdentifier(ctx context.Context, identifier string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.GetContext(ctx, &screen, s.q(`SELECT `+screenColumns+` FROM screens WHERE identifier = ?`), identifier)
	return screen, notFound(err)
}

func (s *sqlStore) ListScreens(ctx context.Context) ([]model.Screen, error) {
	screens := []model.Screen{}
	if err := s.db.SelectContext(ctx, &screens, `SELECT `+screenColumns+` FROM screens ORDER BY id`); err != nil {
		log.Error().Err(err).Msg("[db] ListScreens: failed to select screens")
		return nil, err
	}
	return screens, nil
}

func (s *sqlStore) ListScreensUsingPlaylist(ctx context.Context, playlistID int) ([]model.Screen, error) {
	screens := []model.Screen{}
	err := s.db.SelectContext(ctx, &screens,
		s.q(`SELECT `+screenColumns+` FROM screens WHERE current_playlist_id = ? ORDER BY id`), playlistID)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ListScreensUsingPlaylist: failed to select screens")
		return nil, err
	}
	return screens, nil
}

// AssignPlaylistToScreen sets or clears the screen's playlist. The playlist is
// not checked for existence.
func (s *sqlStore) AssignPlaylistToScreen(ctx context.Context, screenID int, playlistID *int) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE screens SET current_playlist_id = ? WHERE id = ?`), playlistID, screenID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("[db] AssignPlaylistToScreen: failed to update screen")
		return err
	}
	return requireAffected(res)
}

func (s *sqlStore) DeleteScreen(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM screens WHERE id = ?`), id)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("[db] DeleteScreen: failed to delete screen")
		return err
	}
	return requireAffected(res)
}

// MarkStaleScreensOffline flips online screens not seen since before to offline.
func (s *sqlStore) MarkStaleScreensOffline(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE screens
		SET status = ?
		WHERE status = ? AND last_seen < ?`),
		model.StatusOffline, model.StatusOnline, before,
	)
	if err != nil {
		log.Error().Err(err).Msg("[db] MarkStaleScreensOffline: failed to update screens")
		return 0, err
	}
	return res.RowsAffected()
}
