// Package slowly provides a client for the Slowly social-messaging
// web API.
//
// The client authenticates with an opaque bearer token, fetches the
// friend list, and paginates per-friend letter threads. It also
// carries a small event bus so callers can react to named events with
// persistent handlers or one-shot waiters.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client := slowly.NewClient(logger)
//
//	err := client.Run(token, func(ctx context.Context, c *slowly.Client) error {
//		friends, err := c.FetchFriends(ctx)
//		if err != nil {
//			return err
//		}
//		for _, friend := range friends {
//			it := friend.Letters()
//			for it.Next(ctx) {
//				fmt.Println(it.Letter())
//			}
//			if err := it.Err(); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//
// Run installs interrupt handlers and guarantees Close runs after the
// body, even on failure.
//
// # Events
//
// Handlers registered with Handle run as independent background
// goroutines per dispatch; their errors and panics are contained and
// forwarded to an overridable hook. WaitFor registers a one-shot
// waiter that resolves with the first payload matching its predicate.
// Dispatching "ready" flips the readiness flag consumed by
// WaitUntilReady.
package slowly
