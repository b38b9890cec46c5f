package slowly

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// User is a snapshot of a friend record. Two fetches of the same
// friend produce two distinct values; nothing is cached on the fetch
// path.
type User struct {
	ID            int64
	Name          string
	Dob           time.Time
	Age           int
	AllowAudio    int
	AllowPhotos   int
	AudioRequest  int
	Avatar        string
	ByID          string
	CreatedAt     time.Time
	CustomDesc    string
	Deactivated   int
	DobPrivacy    int
	EmojiStatus   string
	Fav           int
	Gender        int
	Identity      string
	Joined        string
	JoinedAt      time.Time
	JoinedAudio   int
	JoinedPhotos  int
	LatestComment time.Time
	LatestSentBy  int64
	LocationCode  string
	OpenLetter    int
	PhotoRequest  int
	Plus          int
	ShowLastLogin int
	Status        int
	Total         int
	Unread        int
	UpdatedAt     time.Time
	UserAudio     int
	UserID        int64
	UserPhotos    int
	UserStatus    int

	state *ConnectionState
}

// userPayload mirrors the wire shape; timestamps arrive as strings
// and are parsed field by field during mapping.
type userPayload struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Dob           string `json:"dob"`
	Age           int    `json:"age"`
	AllowAudio    int    `json:"allowaudio"`
	AllowPhotos   int    `json:"allowphotos"`
	AudioRequest  int    `json:"audiorequest"`
	Avatar        string `json:"avatar"`
	ByID          string `json:"by_id"`
	CreatedAt     string `json:"created_at"`
	CustomDesc    string `json:"customdesc"`
	Deactivated   int    `json:"deactivated"`
	DobPrivacy    int    `json:"dob_privacy"`
	EmojiStatus   string `json:"emoji_status"`
	Fav           int    `json:"fav"`
	Gender        int    `json:"gender"`
	Identity      string `json:"identity"`
	Joined        string `json:"joined"`
	JoinedAt      string `json:"joined_at"`
	JoinedAudio   int    `json:"joined_audio"`
	JoinedPhotos  int    `json:"joined_photos"`
	LatestComment string `json:"latest_comment"`
	LatestSentBy  int64  `json:"latest_sent_by"`
	LocationCode  string `json:"location_code"`
	OpenLetter    int    `json:"openletter"`
	PhotoRequest  int    `json:"photorequest"`
	Plus          int    `json:"plus"`
	ShowLastLogin int    `json:"show_last_login"`
	Status        int    `json:"status"`
	Total         int    `json:"total"`
	Unread        int    `json:"unread"`
	UpdatedAt     string `json:"updated_at"`
	UserAudio     int    `json:"user_audio"`
	UserID        int64  `json:"user_id"`
	UserPhotos    int    `json:"user_photos"`
	UserStatus    int    `json:"user_status"`
}

// newUser maps one wire payload onto a User. Each timestamp is parsed
// from its own key; missing fields keep their zero value.
func newUser(state *ConnectionState, data json.RawMessage) (*User, error) {
	var p userPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: user payload: %v", ErrInvalidData, err)
	}

	u := &User{
		ID:            p.ID,
		Name:          p.Name,
		Age:           p.Age,
		AllowAudio:    p.AllowAudio,
		AllowPhotos:   p.AllowPhotos,
		AudioRequest:  p.AudioRequest,
		Avatar:        p.Avatar,
		ByID:          p.ByID,
		CustomDesc:    p.CustomDesc,
		Deactivated:   p.Deactivated,
		DobPrivacy:    p.DobPrivacy,
		EmojiStatus:   p.EmojiStatus,
		Fav:           p.Fav,
		Gender:        p.Gender,
		Identity:      p.Identity,
		Joined:        p.Joined,
		JoinedAudio:   p.JoinedAudio,
		JoinedPhotos:  p.JoinedPhotos,
		LatestSentBy:  p.LatestSentBy,
		LocationCode:  p.LocationCode,
		OpenLetter:    p.OpenLetter,
		PhotoRequest:  p.PhotoRequest,
		Plus:          p.Plus,
		ShowLastLogin: p.ShowLastLogin,
		Status:        p.Status,
		Total:         p.Total,
		Unread:        p.Unread,
		UserAudio:     p.UserAudio,
		UserID:        p.UserID,
		UserPhotos:    p.UserPhotos,
		UserStatus:    p.UserStatus,
		state:         state,
	}

	var err error
	if u.Dob, err = parseOptional(dateLayout, p.Dob); err != nil {
		return nil, fmt.Errorf("%w: user dob: %v", ErrInvalidData, err)
	}
	if u.CreatedAt, err = parseOptional(timestampLayout, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: user created_at: %v", ErrInvalidData, err)
	}
	if u.JoinedAt, err = parseOptional(timestampLayout, p.JoinedAt); err != nil {
		return nil, fmt.Errorf("%w: user joined_at: %v", ErrInvalidData, err)
	}
	if u.UpdatedAt, err = parseOptional(timestampLayout, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: user updated_at: %v", ErrInvalidData, err)
	}
	if u.LatestComment, err = parseOptional(timestampLayout, p.LatestComment); err != nil {
		return nil, fmt.Errorf("%w: user latest_comment: %v", ErrInvalidData, err)
	}

	return u, nil
}

// parseOptional parses a date string, treating empty as unset.
func parseOptional(layout, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(layout, value)
}

// String implements fmt.Stringer.
func (u *User) String() string {
	return u.Name
}

// Letters returns a fresh, independent cursor over the letter thread
// shared with this friend.
func (u *User) Letters() *LetterIterator {
	return newLetterIterator(u.state, u.ID)
}
