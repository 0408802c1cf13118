package store

import "time"

// User is an account row.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Chat is a chat row. Members carries the full ordered membership when loaded
// through GetChat.
type Chat struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	GroupChat bool      `json:"groupChat"`
	CreatorID string    `json:"creator"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is the durable message row, sender referenced by bare identity.
type Message struct {
	ID        string    `json:"_id"`
	ChatID    string    `json:"chat"`
	SenderID  string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
