package slowly

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiagovla/slowly-go/api"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(zerolog.Nop(), WithSessionOptions(api.WithBaseURL(serverURL)))
	c.Login("test-token")
	t.Cleanup(c.Close)
	return c
}

func TestFetchFriends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/friends/v2", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"friends": []map[string]any{
				{"id": 1, "name": "Ana", "dob": "1990-05-02"},
				{"id": 2, "name": "Bo", "unread": 4},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	friends, err := c.FetchFriends(context.Background())
	require.NoError(t, err)
	require.Len(t, friends, 2)

	assert.Equal(t, "Ana", friends[0].Name)
	assert.Equal(t, time.Date(1990, time.May, 2, 0, 0, 0, 0, time.UTC), friends[0].Dob)
	assert.Equal(t, 4, friends[1].Unread)

	// Friends share the client's connection state but are fresh
	// snapshots each call.
	again, err := c.FetchFriends(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, friends[0], again[0])
}

func TestFetchClientProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/me", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "device")
		assert.Equal(t, float64(90000), body["ver"])

		json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "me"})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	profile, err := c.FetchClientProfile(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(profile), `"name":"me"`)
}

func TestFetchTokenWrapsLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"bad passcode"}`))
	}))
	defer server.Close()

	c := NewClient(zerolog.Nop(), WithSessionOptions(api.WithBaseURL(server.URL)))
	defer c.Close()

	// Token exchange works on an unauthenticated client.
	_, err := c.FetchToken(context.Background(), "me@example.com", "000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailure)
}

func TestFetchPasscodeUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/email/passcode", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(zerolog.Nop(), WithSessionOptions(api.WithBaseURL(server.URL)))
	defer c.Close()

	require.NoError(t, c.FetchPasscode(context.Background(), "me@example.com"))
}

func TestRunClosesClientOnFailure(t *testing.T) {
	c := NewClient(zerolog.Nop())

	wantErr := errors.New("main body failed")
	err := c.Run("token", func(ctx context.Context, c *Client) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// Close already ran: the session is torn down.
	_, err = c.Session().Request(context.Background(), api.NewRoute(http.MethodGet, "web/me", nil))
	assert.ErrorIs(t, err, api.ErrSessionClosed)
}

func TestClientReadiness(t *testing.T) {
	c := NewClient(zerolog.Nop())
	defer c.Close()

	assert.False(t, c.IsReady())
	c.Dispatch("ready")
	require.NoError(t, c.WaitUntilReady(context.Background()))
	assert.True(t, c.IsReady())
}

func TestClientEventRoundTrip(t *testing.T) {
	c := NewClient(zerolog.Nop())
	defer c.Close()

	got := make(chan any, 1)
	go func() {
		v, _ := c.WaitFor(context.Background(), "letter", func(args ...any) bool {
			letter, ok := args[0].(*Letter)
			return ok && letter.ID > 5
		}, time.Second)
		got <- v
	}()

	// Matching payload arrives after a non-matching one.
	time.Sleep(10 * time.Millisecond)
	c.Dispatch("letter", &Letter{ID: 3})
	c.Dispatch("letter", &Letter{ID: 7})

	select {
	case v := <-got:
		require.IsType(t, &Letter{}, v)
		assert.Equal(t, int64(7), v.(*Letter).ID)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resolved")
	}
}
