package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID identifies a notification. Servers send it as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Type is the server-side category, e.g. "SYSTEM" or "PRICE".
type Type string

// Notification is a single item of the feed. It is created server-side; the
// client only flips IsRead after the server acknowledged a mark-read.
type Notification struct {
	ID        ID         `json:"id"`
	Type      Type       `json:"type,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	Timestamp *time.Time `json:"timestamp,omitempty"` // push time, when the server sends one
}

// MarkAsRead flips the local read flag.
func (n *Notification) MarkAsRead() {
	n.IsRead = true
}

// DisplayTime is the time shown next to a toast: the push timestamp when
// present, otherwise the creation time.
func (n Notification) DisplayTime() time.Time {
	if n.Timestamp != nil && !n.Timestamp.IsZero() {
		return *n.Timestamp
	}
	return n.CreatedAt
}

// DisplayTitle falls back to a generic title for untitled notifications.
func (n Notification) DisplayTitle() string {
	if n.Title == "" {
		return "Notification"
	}
	return n.Title
}

// Payload is the body of one pushed event. The stream sends a single
// notification object, an array of notifications, or {"error": "..."} when
// the server gives up on the session.
type Payload struct {
	Notifications []Notification
	Error         string
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty payload: %w", ErrInvalidPayload)
	}

	switch b[0] {
	case '[':
		var list []Notification
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		for i, n := range list {
			if n.ID == "" {
				return fmt.Errorf("notification %d without id: %w", i, ErrInvalidPayload)
			}
		}
		*p = Payload{Notifications: list}
		return nil

	case '{':
		var head struct {
			ID    *ID     `json:"id"`
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(b, &head); err != nil {
			return err
		}
		if head.ID == nil && head.Error != nil {
			*p = Payload{Error: *head.Error}
			return nil
		}
		if head.ID == nil || *head.ID == "" {
			return fmt.Errorf("notification without id: %w", ErrInvalidPayload)
		}
		var n Notification
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*p = Payload{Notifications: []Notification{n}}
		return nil
	}

	return fmt.Errorf("unexpected %q: %w", b[0], ErrInvalidPayload)
}
