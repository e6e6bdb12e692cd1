package bus

// EventKind distinguishes the two update kinds the bot routes.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventMessage EventKind = "message"
)

type InboundMessage struct {
	Channel       string    `json:"channel"`
	Kind          EventKind `json:"kind"`
	ChatID        string    `json:"chat_id"`
	SenderName    string    `json:"sender_name,omitempty"`
	Content       string    `json:"content,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

type OutboundMessage struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}
