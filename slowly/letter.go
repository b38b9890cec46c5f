package slowly

import (
	"encoding/json"
	"fmt"
	"time"
)

// Letter is a snapshot of one message in a friend thread.
type Letter struct {
	ID           int64
	Name         string
	Body         string
	Post         string
	Avatar       string
	Attachments  json.RawMessage
	CreatedAt    time.Time
	DeliverAt    time.Time
	ReadAt       time.Time
	UpdatedAt    time.Time
	Fav          int
	Gender       int
	LocationCode string
	SentFrom     string
	Stamp        string
	Status       int
	Style        int
	Type         int
	User         int64
	UserFav      int
	UserTo       int64
	UserToFav    int

	state *ConnectionState
}

type letterPayload struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Body         string          `json:"body"`
	Post         string          `json:"post"`
	Avatar       string          `json:"avatar"`
	Attachments  json.RawMessage `json:"attachments"`
	CreatedAt    string          `json:"created_at"`
	DeliverAt    string          `json:"deliver_at"`
	ReadAt       string          `json:"read_at"`
	UpdatedAt    string          `json:"updated_at"`
	Fav          int             `json:"fav"`
	Gender       int             `json:"gender"`
	LocationCode string          `json:"location_code"`
	SentFrom     string          `json:"sent_from"`
	Stamp        string          `json:"stamp"`
	Status       int             `json:"status"`
	Style        int             `json:"style"`
	Type         int             `json:"type"`
	User         int64           `json:"user"`
	UserFav      int             `json:"user_fav"`
	UserTo       int64           `json:"user_to"`
	UserToFav    int             `json:"user_to_fav"`
}

// newLetter maps one wire payload onto a Letter. Each timestamp is
// parsed from its own key; missing fields keep their zero value.
func newLetter(state *ConnectionState, data json.RawMessage) (*Letter, error) {
	var p letterPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: letter payload: %v", ErrInvalidData, err)
	}

	l := &Letter{
		ID:           p.ID,
		Name:         p.Name,
		Body:         p.Body,
		Post:         p.Post,
		Avatar:       p.Avatar,
		Attachments:  p.Attachments,
		Fav:          p.Fav,
		Gender:       p.Gender,
		LocationCode: p.LocationCode,
		SentFrom:     p.SentFrom,
		Stamp:        p.Stamp,
		Status:       p.Status,
		Style:        p.Style,
		Type:         p.Type,
		User:         p.User,
		UserFav:      p.UserFav,
		UserTo:       p.UserTo,
		UserToFav:    p.UserToFav,
		state:        state,
	}

	var err error
	if l.CreatedAt, err = parseOptional(timestampLayout, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: letter created_at: %v", ErrInvalidData, err)
	}
	if l.DeliverAt, err = parseOptional(timestampLayout, p.DeliverAt); err != nil {
		return nil, fmt.Errorf("%w: letter deliver_at: %v", ErrInvalidData, err)
	}
	if l.ReadAt, err = parseOptional(timestampLayout, p.ReadAt); err != nil {
		return nil, fmt.Errorf("%w: letter read_at: %v", ErrInvalidData, err)
	}
	if l.UpdatedAt, err = parseOptional(timestampLayout, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: letter updated_at: %v", ErrInvalidData, err)
	}

	return l, nil
}

// String implements fmt.Stringer.
func (l *Letter) String() string {
	return fmt.Sprintf("<Letter from=%q>", l.Name)
}
