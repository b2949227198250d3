package models

// OutboundMessageRequest represents requests to push a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// Subscriber is a phone number that receives shift notifications.
type Subscriber struct {
	UserID string `db:"user_id" json:"user_id"`
	Phone  string `db:"phone" json:"phone"`
	Role   string `db:"role" json:"role"`
}
