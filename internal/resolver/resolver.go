// Package resolver turns a screen's playlist assignment into the ordered list
// of entries a player should show.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// Source is the part of db.Store the resolver reads from.
type Source interface {
	GetPlaylistByID(ctx context.Context, id int) (model.Playlist, error)
	ListPlaylistItemsWithContent(ctx context.Context, playlistID int) ([]model.ItemWithContent, error)
}

type Resolver struct {
	source Source
}

func New(source Source) *Resolver {
	return &Resolver{source: source}
}

// ResolveDuration picks the item override when it is set and positive,
// otherwise the content default.
func ResolveDuration(override *int, contentDefault int) int {
	if override != nil && *override > 0 {
		return *override
	}
	return contentDefault
}

// Sort orders items by Order, breaking ties by item ID.
func Sort(items []model.ItemWithContent) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Item, items[j].Item
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

// Resolve annotates already loaded items with their resolved durations.
func Resolve(items []model.ItemWithContent) []model.ResolvedItem {
	Sort(items)
	out := make([]model.ResolvedItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.ResolvedItem{
			PlaylistItem: it.Item,
			Content:      it.Content,
			Duration:     ResolveDuration(it.Item.DurationOverride, it.Content.DefaultDuration),
		})
	}
	return out
}

// ForScreen resolves the screen's current playlist. A screen without a
// playlist, or pointing at one that no longer exists, gets a nil playlist and
// no items.
func (r *Resolver) ForScreen(ctx context.Context, screen model.Screen) (*model.Playlist, []model.ResolvedItem, error) {
	if screen.CurrentPlaylistID == nil {
		return nil, []model.ResolvedItem{}, nil
	}
	id := *screen.CurrentPlaylistID

	playlist, err := r.source.GetPlaylistByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, []model.ResolvedItem{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load playlist %d: %w", id, err)
	}

	items, err := r.source.ListPlaylistItemsWithContent(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load items for playlist %d: %w", id, err)
	}
	playlist.Items = nil
	return &playlist, Resolve(items), nil
}
