package notifications

import "time"

// MessageType identifies the kind of push message
type MessageType string

const (
	TypeVerificationProgress  MessageType = "verification_progress"
	TypeVerificationCompleted MessageType = "verification_completed"
	TypeListingStatus         MessageType = "listing_status"
)

// Message is a push message delivered over WebSocket
type Message struct {
	Type      MessageType            `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}
