package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"splitsmart/internal/notify"
)

// MessageVersion is bumped when the envelope layout changes.
const MessageVersion = 1

// NotificationMessage is the envelope published for each notification.
type NotificationMessage struct {
	Version      int                 `json:"version"`
	Notification notify.Notification `json:"notification"`
	PublishedAt  time.Time           `json:"publishedAt"`
}

func NewNotificationMessage(n notify.Notification) *NotificationMessage {
	return &NotificationMessage{
		Version:      MessageVersion,
		Notification: n,
		PublishedAt:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message and rejects versions this
// build does not understand.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != MessageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return &msg, nil
}
