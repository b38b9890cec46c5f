package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tiagovla/slowly-go/filter"
	"github.com/tiagovla/slowly-go/slowly"
)

var allFriends bool

// fetchConcurrency bounds the per-friend thread fan-out in --all mode.
const fetchConcurrency = 5

// lettersCmd represents the letters command
var lettersCmd = &cobra.Command{
	Use:   "letters [friend-id]",
	Short: "Dump the letter thread shared with a friend",
	Long: `Walk the letter thread shared with one friend page by page, or all
threads with --all. Letters can be narrowed down with a filter
expression such as 'not isRead()' or 'daysSince(Letter.CreatedAt) < 30'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLetters,
}

func init() {
	lettersCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	lettersCmd.Flags().BoolVar(&allFriends, "all", false, "fetch every friend's thread")
}

func runLetters(cmd *cobra.Command, args []string) error {
	token, err := requireToken()
	if err != nil {
		return err
	}

	if !allFriends && len(args) == 0 {
		return fmt.Errorf("a friend id is required unless --all is given")
	}

	var letterFilter *filter.Filter
	if filterExpr != "" {
		letterFilter, err = filter.Compile(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	return client.Run(token, func(ctx context.Context, c *slowly.Client) error {
		friends, err := c.FetchFriends(ctx)
		if err != nil {
			return err
		}

		if allFriends {
			return dumpAllThreads(ctx, friends, letterFilter)
		}

		friendID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid friend id %q", args[0])
		}
		for _, friend := range friends {
			if friend.ID == friendID {
				letters, err := collectLetters(ctx, friend, letterFilter)
				if err != nil {
					return err
				}
				printThread(friend, letters)
				return nil
			}
		}
		return fmt.Errorf("no friend with id %d", friendID)
	})
}

// dumpAllThreads walks every friend's thread with a bounded number of
// concurrent fetches.
func dumpAllThreads(ctx context.Context, friends []*slowly.User, letterFilter *filter.Filter) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	var mu sync.Mutex
	threads := make(map[int64][]*slowly.Letter, len(friends))

	for _, friend := range friends {
		friend := friend
		g.Go(func() error {
			letters, err := collectLetters(ctx, friend, letterFilter)
			if err != nil {
				return fmt.Errorf("thread with %s: %w", friend.Name, err)
			}
			mu.Lock()
			threads[friend.ID] = letters
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sorted := make([]*slowly.User, len(friends))
	copy(sorted, friends)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, friend := range sorted {
		printThread(friend, threads[friend.ID])
		fmt.Println()
	}
	return nil
}

func collectLetters(ctx context.Context, friend *slowly.User, letterFilter *filter.Filter) ([]*slowly.Letter, error) {
	var letters []*slowly.Letter
	it := friend.Letters()
	for it.Next(ctx) {
		letter := it.Letter()
		if letterFilter != nil {
			ok, err := letterFilter.MatchLetter(letter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		letters = append(letters, letter)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return letters, nil
}

func printThread(friend *slowly.User, letters []*slowly.Letter) {
	fmt.Printf("Thread with %s (id %d): %d letters\n", friend.Name, friend.ID, len(letters))
	fmt.Println(strings.Repeat("-", 80))
	for _, letter := range letters {
		sender := letter.Name
		if sender == "" {
			sender = "me"
		}
		fmt.Printf("• #%d from %s", letter.ID, sender)
		if !letter.CreatedAt.IsZero() {
			fmt.Printf(" (%s)", letter.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Println()

		body := letter.Body
		if len(body) > 120 {
			body = body[:117] + "..."
		}
		if body != "" {
			fmt.Printf("  %s\n", body)
		}
	}
}
