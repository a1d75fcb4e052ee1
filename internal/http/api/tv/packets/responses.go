package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// RESPONSES FOR /api/screen/* and /api/content/*

type SuccessResponse struct {
	Success bool `json:"success"`
}

type RegisterResponse struct {
	Success bool           `json:"success"`
	Screen  ScreenResponse `json:"screen"`
}

// ScreenResponse mirrors model.Screen but flattens times to RFC3339
type ScreenResponse struct {
	ID                int     `json:"id"`
	Identifier        string  `json:"identifier"`
	Name              string  `json:"name"`
	Location          string  `json:"location"`
	Status            string  `json:"status"`
	LastSeen          *string `json:"last_seen"`
	CurrentPlaylistID *int    `json:"current_playlist_id"`
	CreatedAt         string  `json:"created_at"`
}

type ContentResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ContentType string  `json:"content_type"`
	FilePath    string  `json:"file_path"`
	Duration    int     `json:"duration"`
	FileSize    *int64  `json:"file_size"`
	MimeType    *string `json:"mime_type"`
	DisplayMode string  `json:"display_mode"`
	CreatedAt   string  `json:"created_at"`
}

type PlaylistItemResponse struct {
	ID               int     `json:"id"`
	PlaylistID       int     `json:"playlist_id"`
	ContentID        int     `json:"content_id"`
	Order            int     `json:"order"`
	DurationOverride *int    `json:"duration_override"`
	ScheduleStart    *string `json:"schedule_start"`
	ScheduleEnd      *string `json:"schedule_end"`
}

type PlaylistResponse struct {
	ID               int                    `json:"id"`
	Name             string                 `json:"name"`
	Description      *string                `json:"description"`
	TransitionEffect string                 `json:"transition_effect"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
	Items            []PlaylistItemResponse `json:"items,omitempty"`
}

// ResolvedItemResponse is one playback entry with its effective duration.
type ResolvedItemResponse struct {
	PlaylistItemResponse
	Content  ContentResponse `json:"content"`
	Duration int             `json:"duration"`
}

// ScreenContentResponse is the body of GET /api/screen/:identifier/content.
// Items is never null.
type ScreenContentResponse struct {
	Playlist *PlaylistResponse     `json:"playlist"`
	Items    []ResolvedItemResponse `json:"items"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func Screen(s model.Screen) ScreenResponse {
	out := ScreenResponse{
		ID:                s.ID,
		Identifier:        s.Identifier,
		Name:              s.Name,
		Location:          s.Location,
		Status:            s.Status,
		CurrentPlaylistID: s.CurrentPlaylistID,
		CreatedAt:         formatTime(s.CreatedAt),
	}
	if s.LastSeen != nil {
		seen := formatTime(*s.LastSeen)
		out.LastSeen = &seen
	}
	return out
}

func Content(c model.Content) ContentResponse {
	return ContentResponse{
		ID:          c.ID,
		Name:        c.Name,
		ContentType: c.Kind,
		FilePath:    c.Location,
		Duration:    c.DefaultDuration,
		FileSize:    c.FileSize,
		MimeType:    c.MimeType,
		DisplayMode: c.DisplayMode,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func PlaylistItem(it model.PlaylistItem) PlaylistItemResponse {
	return PlaylistItemResponse{
		ID:               it.ID,
		PlaylistID:       it.PlaylistID,
		ContentID:        it.ContentID,
		Order:            it.Order,
		DurationOverride: it.DurationOverride,
		ScheduleStart:    it.ScheduleStart,
		ScheduleEnd:      it.ScheduleEnd,
	}
}

func Playlist(p model.Playlist) PlaylistResponse {
	out := PlaylistResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		TransitionEffect: p.TransitionEffect,
		CreatedAt:        formatTime(p.CreatedAt),
		UpdatedAt:        formatTime(p.UpdatedAt),
	}
	if len(p.Items) > 0 {
		out.Items = make([]PlaylistItemResponse, len(p.Items))
		for i, it := range p.Items {
			out.Items[i] = PlaylistItem(it)
		}
	}
	return out
}

func ScreenContent(p *model.Playlist, items []model.ResolvedItem) ScreenContentResponse {
	out := ScreenContentResponse{Items: make([]ResolvedItemResponse, 0, len(items))}
	if p != nil {
		pl := Playlist(*p)
		out.Playlist = &pl
	}
	for _, it := range items {
		out.Items = append(out.Items, ResolvedItemResponse{
			PlaylistItemResponse: PlaylistItem(it.PlaylistItem),
			Content:              Content(it.Content),
			Duration:             it.Duration,
		})
	}
	return out
}
