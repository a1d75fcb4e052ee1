package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const (
	playlistColumns = `id, name, description, transition_effect, created_at, updated_at`
	itemColumns     = `id, playlist_id, content_id, item_order, duration_override, schedule_start, schedule_end`
)

// @ PLAYLIST
func (s *sqlStore) CreatePlaylist(ctx context.Context, name string, description *string, transition string, now time.Time) (model.Playlist, error) {
	if transition == "" {
		transition = model.TransitionFade
	}

	var id int
	err := s.db.GetContext(ctx, &id, s.q(`
		INSERT INTO playlists (name, description, transition_effect, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		name, description, transition, now, now,
	)
	if err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: failed to insert playlist")
		return model.Playlist{}, err
	}
	return s.GetPlaylistByID(ctx, id)
}

// GetPlaylistByID returns the playlist with its items in play order.
func (s *sqlStore) GetPlaylistByID(ctx context.Context, id int) (model.Playlist, error) {
	var p model.Playlist
	if err := s.db.GetContext(ctx, &p, s.q(`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`), id); err != nil {
		return model.Playlist{}, notFound(err)
	}

	items, err := s.ListPlaylistItems(ctx, id)
	if err != nil {
		return model.Playlist{}, err
	}
	p.Items = items
	return p, nil
}

func (s *sqlStore) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	out := []model.Playlist{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+playlistColumns+` FROM playlists ORDER BY id`); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: failed to select playlists")
		return nil, err
	}

	for i := range out {
		items, err := s.ListPlaylistItems(ctx, out[i].ID)
		if err != nil {
			log.Error().Err(err).Int("playlist_id", out[i].ID).Msg("[db] ListPlaylists: failed to load items")
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *sqlStore) UpdatePlaylist(ctx context.Context, id int, name, description, transition *string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE playlists
		SET
		name              = COALESCE(?, name),
		description       = COALESCE(?, description),
		transition_effect = COALESCE(?, transition_effect),
		updated_at        = ?
		WHERE id = ?`),
		name, description, transition, now, id,
	)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] UpdatePlaylist: failed to update playlist")
		return err
	}
	return requireAffected(res)
}

// DeletePlaylist removes the playlist and its items and unassigns it from
// every screen.
func (s *sqlStore) DeletePlaylist(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playlist_items WHERE playlist_id = ?`), id); err != nil {
			log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist: failed to delete items")
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE screens SET current_playlist_id = NULL WHERE current_playlist_id = ?`), id); err != nil {
			log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist: failed to clear screens")
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playlists WHERE id = ?`), id)
		if err != nil {
			log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist: failed to delete playlist")
			return err
		}
		return requireAffected(res)
	})
}

// @ PLAYLIST ITEMS
func (s *sqlStore) AddItemToPlaylist(ctx context.Context, item NewItem) (model.PlaylistItem, error) {
	var id int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, check := range []struct {
			table string
			id    int
		}{{"playlists", item.PlaylistID}, {"content", item.ContentID}} {
			var n int
			if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM `+check.table+` WHERE id = ?`), check.id); err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
		}

		order := item.Order
		if order == nil {
			var next int
			if err := tx.GetContext(ctx, &next,
				tx.Rebind(`SELECT COALESCE(MAX(item_order), 0) + 1 FROM playlist_items WHERE playlist_id = ?`),
				item.PlaylistID); err != nil {
				return err
			}
			order = &next
		}

		return tx.GetContext(ctx, &id, tx.Rebind(`
			INSERT INTO playlist_items
			(playlist_id, content_id, item_order, duration_override, schedule_start, schedule_end)
			VALUES
			(?,           ?,          ?,          ?,                 ?,              ?)
			RETURNING id`),
			item.PlaylistID, item.ContentID, *order, item.DurationOverride, item.ScheduleStart, item.ScheduleEnd,
		)
	})
	if err != nil {
		log.Error().Err(err).Int("playlist_id", item.PlaylistID).Msg("[db] AddItemToPlaylist: failed to add item")
		return model.PlaylistItem{}, err
	}

	var it model.PlaylistItem
	err = s.db.GetContext(ctx, &it, s.q(`SELECT `+itemColumns+` FROM playlist_items WHERE id = ?`), id)
	return it, notFound(err)
}

// UpdatePlaylistItem changes order and/or duration override of an item.
func (s *sqlStore) UpdatePlaylistItem(ctx context.Context, playlistID, itemID int, update ItemUpdate) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE playlist_items
		SET
		item_order        = COALESCE(?, item_order),
		duration_override = CASE WHEN ? THEN NULL ELSE COALESCE(?, duration_override) END
		WHERE id = ? AND playlist_id = ?`),
		update.Order, update.ClearDurationOverride, update.DurationOverride, itemID, playlistID,
	)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[db] UpdatePlaylistItem: failed to update item")
		return err
	}
	return requireAffected(res)
}

func (s *sqlStore) RemovePlaylistItem(ctx context.Context, playlistID, itemID int) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM playlist_items WHERE id = ? AND playlist_id = ?`), itemID, playlistID)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[db] RemovePlaylistItem: failed to delete item")
		return err
	}
	return requireAffected(res)
}

// ReorderPlaylistItems renumbers the listed items 1..n in the given order.
// Every id must belong to the playlist.
func (s *sqlStore) ReorderPlaylistItems(ctx context.Context, playlistID int, itemIDs []int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for idx, itemID := range itemIDs {
			res, err := tx.ExecContext(ctx, tx.Rebind(`
				UPDATE playlist_items
				   SET item_order = ?
				 WHERE id = ? AND playlist_id = ?`),
				idx+1, itemID, playlistID,
			)
			if err != nil {
				log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ReorderPlaylistItems: failed to update item")
				return err
			}
			if err := requireAffected(res); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *sqlStore) ListPlaylistItems(ctx context.Context, playlistID int) ([]model.PlaylistItem, error) {
	list := []model.PlaylistItem{}
	err := s.db.SelectContext(ctx, &list,
		s.q(`SELECT `+itemColumns+` FROM playlist_items WHERE playlist_id = ? ORDER BY item_order, id`), playlistID)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ListPlaylistItems: failed to select items")
		return nil, err
	}
	return list, nil
}

type itemRow struct {
	model.PlaylistItem
	Content model.Content `db:"content"`
}

// ListPlaylistItemsWithContent joins each item with its content, in play order.
func (s *sqlStore) ListPlaylistItemsWithContent(ctx context.Context, playlistID int) ([]model.ItemWithContent, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT
		i.id, i.playlist_id, i.content_id, i.item_order, i.duration_override, i.schedule_start, i.schedule_end,
		c.id           AS "content.id",
		c.name         AS "content.name",
		c.content_type AS "content.content_type",
		c.file_path    AS "content.file_path",
		c.duration     AS "content.duration",
		c.file_size    AS "content.file_size",
		c.mime_type    AS "content.mime_type",
		c.display_mode AS "content.display_mode",
		c.created_at   AS "content.created_at"
		FROM playlist_items i
		JOIN content c ON c.id = i.content_id
		WHERE i.playlist_id = ?
		ORDER BY i.item_order, i.id`), playlistID)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ListPlaylistItemsWithContent: failed to select items")
		return nil, err
	}

	out := make([]model.ItemWithContent, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ItemWithContent{Item: r.PlaylistItem, Content: r.Content})
	}
	return out, nil
}
