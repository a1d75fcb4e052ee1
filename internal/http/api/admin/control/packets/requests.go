package packets

// REQUESTS FOR /api/admin/*

type CreateContentRequest struct {
	Name        string  `json:"name"         binding:"required"`
	ContentType string  `json:"content_type" binding:"required"`
	FilePath    string  `json:"file_path"    binding:"required"`
	Duration    *int    `json:"duration"`
	DisplayMode string  `json:"display_mode"`
	FileSize    *int64  `json:"file_size"`
	MimeType    *string `json:"mime_type"`
}

type UpdateContentRequest struct {
	Name        *string `json:"name"`
	Duration    *int    `json:"duration"`
	DisplayMode *string `json:"display_mode"`
}

type CreatePlaylistRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      *string `json:"description"`
	TransitionEffect string  `json:"transition_effect"`
}

type UpdatePlaylistRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	TransitionEffect *string `json:"transition_effect"`
}

type AddPlaylistItemRequest struct {
	ContentID        int     `json:"content_id" binding:"required"`
	Order            *int    `json:"order"`             // defaults to after the last item
	DurationOverride *int    `json:"duration_override"` // seconds; falls back to the content duration
	ScheduleStart    *string `json:"schedule_start"`    // HH:MM or HH:MM:SS
	ScheduleEnd      *string `json:"schedule_end"`
}

type UpdatePlaylistItemRequest struct {
	Order            *int `json:"order"`
	DurationOverride *int `json:"duration_override"`
	// ClearDurationOverride drops the override so the content duration applies again
	ClearDurationOverride bool `json:"clear_duration_override"`
}

type ReorderItemsRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required"`
}

// AssignPlaylistToScreenRequest assigns a playlist; a null playlist_id unassigns.
type AssignPlaylistToScreenRequest struct {
	PlaylistID *int `json:"playlist_id"`
}
