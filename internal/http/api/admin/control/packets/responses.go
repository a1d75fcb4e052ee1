package packets

// RESPONSES FOR /api/admin/*
//
// Entities are rendered with the same shapes as the device API.

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
