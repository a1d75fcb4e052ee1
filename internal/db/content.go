package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const contentColumns = `id, name, content_type, file_path, duration, file_size, mime_type, display_mode, created_at`

// @ CONTENT
func (s *sqlStore) CreateContent(ctx context.Context, c model.Content) (model.Content, error) {
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = model.DefaultContentDuration
	}
	if c.DisplayMode == "" {
		c.DisplayMode = model.DisplayFit
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var id int
	err := s.db.GetContext(ctx, &id, s.q(`
		INSERT INTO content
		(name, content_type, file_path, duration, file_size, mime_type, display_mode, created_at)
		VALUES
		(?,    ?,            ?,         ?,        ?,         ?,         ?,            ?)
		RETURNING id`),
		c.Name, c.Kind, c.Location, c.DefaultDuration, c.FileSize, c.MimeType, c.DisplayMode, c.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("[db] CreateContent: failed to insert content")
		return model.Content{}, err
	}
	return s.GetContentByID(ctx, id)
}

func (s *sqlStore) GetContentByID(ctx context.Context, id int) (model.Content, error) {
	var c model.Content
	err := s.db.GetContext(ctx, &c, s.q(`SELECT `+contentColumns+` FROM content WHERE id = ?`), id)
	return c, notFound(err)
}

func (s *sqlStore) ListContent(ctx context.Context) ([]model.Content, error) {
	all := []model.Content{}
	if err := s.db.SelectContext(ctx, &all, `SELECT `+contentColumns+` FROM content ORDER BY created_at DESC, id DESC`); err != nil {
		log.Error().Err(err).Msg("[db] ListContent: failed to select content")
		return nil, err
	}
	return all, nil
}

// UpdateContent changes only the fields that are non-nil.
func (s *sqlStore) UpdateContent(ctx context.Context, id int, name *string, duration *int, displayMode *string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE content
		SET
		name         = COALESCE(?, name),
		duration     = COALESCE(?, duration),
		display_mode = COALESCE(?, display_mode)
		WHERE id = ?`),
		name, duration, displayMode, id,
	)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("[db] UpdateContent: failed to update content")
		return err
	}
	return requireAffected(res)
}

// DeleteContent removes the content and every playlist item that references it.
func (s *sqlStore) DeleteContent(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playlist_items WHERE content_id = ?`), id); err != nil {
			log.Error().Err(err).Int("content_id", id).Msg("[db] DeleteContent: failed to delete items")
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM content WHERE id = ?`), id)
		if err != nil {
			log.Error().Err(err).Int("content_id", id).Msg("[db] DeleteContent: failed to delete content")
			return err
		}
		return requireAffected(res)
	})
}

// ListPlaylistIDsForContent returns the playlists holding at least one item
// that references the content.
func (s *sqlStore) ListPlaylistIDsForContent(ctx context.Context, contentID int) ([]int, error) {
	ids := []int{}
	err := s.db.SelectContext(ctx, &ids,
		s.q(`SELECT DISTINCT playlist_id FROM playlist_items WHERE content_id = ? ORDER BY playlist_id`), contentID)
	if err != nil {
		log.Error().Err(err).Int("content_id", contentID).Msg("[db] ListPlaylistIDsForContent: failed to select playlists")
		return nil, err
	}
	return ids, nil
}
