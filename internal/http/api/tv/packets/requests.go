package packets

// REQUESTS FOR /api/screen/*

type RegisterRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Name       string `json:"name"`
	Location   string `json:"location"`
}
