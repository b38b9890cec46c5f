package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// LettersPage is one page of a friend's letter thread as returned by
// GET friend/{id}/all.
type LettersPage struct {
	Data        []json.RawMessage
	NextPageURL string
}

type lettersResponse struct {
	Comments struct {
		Data        []json.RawMessage `json:"data"`
		NextPageURL *string           `json:"next_page_url"`
	} `json:"comments"`
}

type friendsResponse struct {
	Friends []json.RawMessage `json:"friends"`
}

// FetchClientProfile retrieves the authenticated user's profile.
func (s *Session) FetchClientProfile(ctx context.Context) (json.RawMessage, error) {
	device, err := json.Marshal(s.device)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device: %w", err)
	}

	body := map[string]any{
		"device":   string(device),
		"trusted":  true,
		"ver":      90000,
		"includes": "add_by_id,weather,paragraph",
	}

	route := NewRouteWithBase(s.baseURL, http.MethodPost, "web/me", nil)
	data, err := s.Request(ctx, route, WithJSON(body))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client profile: %w", err)
	}
	return json.RawMessage(data), nil
}

// FetchFriends retrieves the friend list as raw JSON records.
func (s *Session) FetchFriends(ctx context.Context, requests int, dob bool) ([]json.RawMessage, error) {
	query := url.Values{
		"requests": {strconv.Itoa(requests)},
		"dob":      {strconv.FormatBool(dob)},
		"token":    {s.token},
	}

	route := NewRouteWithBase(s.baseURL, http.MethodGet, "users/me/friends/v2", nil)
	data, err := s.Request(ctx, route, WithQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}

	var resp friendsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse friends response: %w", err)
	}
	return resp.Friends, nil
}

// FetchUserLetters retrieves one page of the letter thread shared
// with a friend.
func (s *Session) FetchUserLetters(ctx context.Context, friendID int64, page int) (*LettersPage, error) {
	query := url.Values{
		"token": {s.token},
		"page":  {strconv.Itoa(page)},
	}

	route := NewRouteWithBase(s.baseURL, http.MethodGet, "friend/{id}/all", map[string]any{"id": friendID})
	data, err := s.Request(ctx, route, WithQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch letters for friend %d: %w", friendID, err)
	}

	var resp lettersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse letters response: %w", err)
	}

	result := &LettersPage{Data: resp.Comments.Data}
	if resp.Comments.NextPageURL != nil {
		result.NextPageURL = *resp.Comments.NextPageURL
	}
	return result, nil
}

// RequestAuthPasscode asks the API to mail a one-time passcode to the
// given address.
func (s *Session) RequestAuthPasscode(ctx context.Context, email string) error {
	body := map[string]any{
		"email":     email,
		"device":    s.device,
		"checkpass": false,
	}

	route := NewRouteWithBase(s.baseURL, http.MethodPost, "auth/email/passcode", nil)
	if _, err := s.Request(ctx, route, WithJSON(body)); err != nil {
		return fmt.Errorf("failed to request passcode: %w", err)
	}
	return nil
}

// ExchangeAuthToken trades an emailed passcode for a bearer token.
func (s *Session) ExchangeAuthToken(ctx context.Context, email, passcode string) (string, error) {
	body := map[string]any{
		"email":    email,
		"passcode": passcode,
		"device":   s.device,
	}

	route := NewRouteWithBase(s.baseURL, http.MethodPost, "auth/email", nil)
	data, err := s.Request(ctx, route, WithJSON(body))
	if err != nil {
		return "", fmt.Errorf("failed to exchange passcode: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	return resp.Token, nil
}
