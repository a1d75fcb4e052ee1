// exposes a Store interface that is passed to the API modules
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

type Store interface {
	// screen functions
	RegisterScreen(ctx context.Context, identifier, name, location string, now time.Time) (model.Screen, error)
	TouchScreen(ctx context.Context, identifier string, now time.Time) (model.Screen, error)
	GetScreenByID(ctx context.Context, id int) (model.Screen, error)
	GetScreenByIdentifier(ctx context.Context, identifier string) (model.Screen, error)
	ListScreens(ctx context.Context) ([]model.Screen, error)
	ListScreensUsingPlaylist(ctx context.Context, playlistID int) ([]model.Screen, error)
	AssignPlaylistToScreen(ctx context.Context, screenID int, playlistID *int) error
	DeleteScreen(ctx context.Context, id int) error
	MarkStaleScreensOffline(ctx context.Context, before time.Time) (int64, error)

	// content functions
	CreateContent(ctx context.Context, c model.Content) (model.Content, error)
	GetContentByID(ctx context.Context, id int) (model.Content, error)
	ListContent(ctx context.Context) ([]model.Content, error)
	UpdateContent(ctx context.Context, id int, name *string, duration *int, displayMode *string) error
	DeleteContent(ctx context.Context, id int) error
	ListPlaylistIDsForContent(ctx context.Context, contentID int) ([]int, error)

	// playlist functions
	CreatePlaylist(ctx context.Context, name string, description *string, transition string, now time.Time) (model.Playlist, error)
	GetPlaylistByID(ctx context.Context, id int) (model.Playlist, error)
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id int, name, description, transition *string, now time.Time) error
	DeletePlaylist(ctx context.Context, id int) error
	AddItemToPlaylist(ctx context.Context, item NewItem) (model.PlaylistItem, error)
	UpdatePlaylistItem(ctx context.Context, playlistID, itemID int, update ItemUpdate) error
	RemovePlaylistItem(ctx context.Context, playlistID, itemID int) error
	ReorderPlaylistItems(ctx context.Context, playlistID int, itemIDs []int) error
	ListPlaylistItems(ctx context.Context, playlistID int) ([]model.PlaylistItem, error)
	ListPlaylistItemsWithContent(ctx context.Context, playlistID int) ([]model.ItemWithContent, error)
}

// NewItem describes a playlist item to insert. A nil Order appends the item
// after the current last one.
type NewItem struct {
	PlaylistID       int
	ContentID        int
	Order            *int
	DurationOverride *int
	ScheduleStart    *string
	ScheduleEnd      *string
}

// ItemUpdate changes a playlist item. Nil fields are left as they are;
// ClearDurationOverride resets the item to the content's own duration.
type ItemUpdate struct {
	Order                 *int
	DurationOverride      *int
	ClearDurationOverride bool
}

type sqlStore struct {
	db *sqlx.DB
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &sqlStore{db: conn}
}

// q rewrites ? placeholders into the driver's bindvar style.
func (s *sqlStore) q(query string) string {
	return s.db.Rebind(query)
}

func (s *sqlStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
