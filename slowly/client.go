package slowly

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiagovla/slowly-go/api"
	"github.com/tiagovla/slowly-go/dispatch"
)

// Client is the high-level facade over the HTTP session and the event
// bus. Lifecycle: NewClient, Login (or Run), fetches, Close.
type Client struct {
	http   *api.Session
	bus    *dispatch.Bus
	state  *ConnectionState
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSessionOptions forwards options to the underlying HTTP session.
func WithSessionOptions(opts ...api.Option) Option {
	return func(c *Client) {
		c.http = api.NewSession(c.logger, opts...)
	}
}

// WithErrorHook overrides the event-handler error hook.
func WithErrorHook(hook dispatch.ErrorHook) Option {
	return func(c *Client) {
		c.bus = dispatch.NewBus(c.logger, dispatch.WithErrorHook(hook))
	}
}

// NewClient creates a client. It performs no network calls until
// Login.
func NewClient(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{logger: logger}
	c.http = api.NewSession(logger)
	c.bus = dispatch.NewBus(logger)

	for _, opt := range opts {
		opt(c)
	}

	c.state = newConnectionState(c.http, c.Dispatch)
	return c
}

// Session exposes the underlying HTTP session.
func (c *Client) Session() *api.Session {
	return c.http
}

// Login authenticates the HTTP session with a bearer token.
func (c *Client) Login(token string) {
	c.logger.Debug().Msg("Logging in")
	c.http.Login(token)
}

// Start opens the session. It exists as a separate lifecycle step so
// subclass-style wrappers can hook setup work between Login and the
// main body.
func (c *Client) Start(token string) {
	c.Login(token)
}

// Close tears down the client: waits for in-flight event handlers,
// then closes the HTTP session.
func (c *Client) Close() {
	c.logger.Debug().Msg("Closing client")
	c.bus.Close()
	c.http.Close()
}

// Run drives the full lifecycle: login, run fn, guaranteed Close. It
// installs SIGINT/SIGTERM handlers that cancel fn's context; an
// interrupted run returns nil rather than the cancellation error.
func (c *Client) Run(token string, fn func(ctx context.Context, c *Client) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer c.Close()

	c.Start(token)

	err := fn(ctx, c)
	if ctx.Err() != nil {
		c.logger.Info().Msg("Received terminate signal")
		return nil
	}
	return err
}

// Dispatch publishes an event on the client bus.
func (c *Client) Dispatch(event string, args ...any) {
	c.bus.Dispatch(event, args...)
}

// Handle registers a persistent handler for an event.
func (c *Client) Handle(event string, fn dispatch.HandlerFunc) {
	c.bus.Handle(event, fn)
}

// WaitFor blocks until an event matching check is dispatched or the
// timeout elapses.
func (c *Client) WaitFor(ctx context.Context, event string, check dispatch.CheckFunc, timeout time.Duration) (any, error) {
	return c.bus.WaitFor(ctx, event, check, timeout)
}

// IsReady reports whether the ready event has been dispatched.
func (c *Client) IsReady() bool {
	return c.bus.IsReady()
}

// WaitUntilReady blocks until the ready event has been dispatched.
func (c *Client) WaitUntilReady(ctx context.Context) error {
	return c.bus.WaitUntilReady(ctx)
}

// FetchClientProfile fetches the authenticated user's profile.
func (c *Client) FetchClientProfile(ctx context.Context) (json.RawMessage, error) {
	c.logger.Debug().Msg("Fetching client profile")
	return c.http.FetchClientProfile(ctx)
}

// FetchFriends fetches the friend list as User records bound to the
// shared connection state.
func (c *Client) FetchFriends(ctx context.Context) ([]*User, error) {
	data, err := c.http.FetchFriends(ctx, 1, true)
	if err != nil {
		return nil, err
	}

	friends := make([]*User, 0, len(data))
	for _, raw := range data {
		user, err := newUser(c.state, raw)
		if err != nil {
			return nil, err
		}
		friends = append(friends, user)
	}
	c.logger.Debug().Int("count", len(friends)).Msg("Fetched friends")
	return friends, nil
}

// FetchPasscode asks the API to mail a one-time passcode. It works on
// an unauthenticated client.
func (c *Client) FetchPasscode(ctx context.Context, email string) error {
	c.logger.Debug().Str("email", email).Msg("Requesting passcode")
	c.http.Recreate()
	return c.http.RequestAuthPasscode(ctx, email)
}

// FetchToken trades an emailed passcode for a bearer token. It works
// on an unauthenticated client.
func (c *Client) FetchToken(ctx context.Context, email, passcode string) (string, error) {
	c.logger.Debug().Str("email", email).Msg("Exchanging passcode for token")
	c.http.Recreate()
	token, err := c.http.ExchangeAuthToken(ctx, email, passcode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailure, err)
	}
	return token, nil
}
