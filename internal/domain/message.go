package domain

import "time"

// Message belongs to an arrangement's thread. Append-only: never mutated or
// deleted.
type Message struct {
	ID            string    `json:"id"`
	ArrangementID string    `json:"arrangement_id"`
	SenderID      string    `json:"sender_id"`
	ReceiverID    string    `json:"receiver_id"`
	Body          string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessageView struct {
	Message
	SenderName   string  `json:"sender_name"`
	SenderAvatar *string `json:"sender_avatar"`
}

// Participants are the two user ids allowed to read and append to a thread.
type Participants struct {
	HomeownerUserID string
	SitterUserID    string
}

func (p Participants) Includes(userID string) bool {
	return userID == p.HomeownerUserID || userID == p.SitterUserID
}

// Other returns the counterparty of userID within the thread.
func (p Participants) Other(userID string) string {
	if userID == p.HomeownerUserID {
		return p.SitterUserID
	}
	return p.HomeownerUserID
}
