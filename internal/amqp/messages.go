package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// RoutingKeyDocumentChanged routes DocumentChangedMessage.
const RoutingKeyDocumentChanged = "document.changed"

// Origins of a document change.
const (
	OriginMirror = "mirror"
	OriginImport = "import"
)

// DocumentChangedMessage announces that the stored body of a document was
// created, replaced or removed. Consumers re-fetch the document by name.
type DocumentChangedMessage struct {
	Name      string    `json:"name"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDocumentChangedMessage(name, origin string) *DocumentChangedMessage {
	return &DocumentChangedMessage{
		Name:      name,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

func (m *DocumentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentChangedMessageFromJSON decodes a message and rejects one without
// a document name.
func DocumentChangedMessageFromJSON(data []byte) (*DocumentChangedMessage, error) {
	var msg DocumentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Name == "" {
		return nil, errors.New("document changed message without name")
	}
	return &msg, nil
}
