// Package feed streams preference changes to websocket clients.
package feed

import (
	"encoding/json"
	"time"

	"recprefs/internal/settings"
)

// Message types
const (
	TypeHello   = "hello"
	TypeChanged = "changed"
)

// Message is one frame of the feed. A connection starts with a hello carrying
// the full snapshot, followed by one changed message per changed setting.
type Message struct {
	Type     string        `json:"type"`
	ClientID string        `json:"client_id,omitempty"`
	Name     settings.Name `json:"name,omitempty"`
	// Value is the new value in the same JSON form the HTTP API accepts
	Value    json.RawMessage                   `json:"value,omitempty"`
	Cause    settings.Name                     `json:"cause,omitempty"`
	Settings map[settings.Name]json.RawMessage `json:"settings,omitempty"`
	At       time.Time                         `json:"at"`
}

// Decode returns the typed value of a changed message
func (m Message) Decode() (any, error) {
	return settings.DecodeJSON(m.Name, m.Value)
}

func changedMessage(c settings.Change) ([]byte, error) {
	value, err := json.Marshal(c.New)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		Type:  TypeChanged,
		Name:  c.Name,
		Value: value,
		Cause: c.Cause,
		At:    time.Now().UTC(),
	})
}

func helloMessage(clientID string, snapshot map[settings.Name]any) ([]byte, error) {
	values := make(map[settings.Name]json.RawMessage, len(snapshot))
	for name, v := range snapshot {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		values[name] = data
	}
	return json.Marshal(Message{
		Type:     TypeHello,
		ClientID: clientID,
		Settings: values,
		At:       time.Now().UTC(),
	})
}
