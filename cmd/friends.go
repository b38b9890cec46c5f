package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tiagovla/slowly-go/filter"
	"github.com/tiagovla/slowly-go/slowly"
)

var showDetails bool

// friendsCmd represents the friends command
var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "List friends matching the filter criteria",
	Long: `List your Slowly friends, optionally narrowed down by a filter
expression such as 'Friend.Unread > 0' or 'isFav()'.`,
	RunE: runFriends,
}

func init() {
	friendsCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	friendsCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	friendsCmd.Flags().BoolVar(&showDetails, "details", false, "show per-friend details")
}

func runFriends(cmd *cobra.Command, args []string) error {
	token, err := requireToken()
	if err != nil {
		return err
	}

	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	return client.Run(token, func(ctx context.Context, c *slowly.Client) error {
		friends, err := c.FetchFriends(ctx)
		if err != nil {
			return err
		}

		if expr != "" {
			logger.Info().Str("filter", expr).Msg("Filtering friends")
			f, err := filter.Compile(expr)
			if err != nil {
				return fmt.Errorf("invalid filter expression: %w", err)
			}
			friends, err = f.FriendsMatching(friends)
			if err != nil {
				return err
			}
		}

		if len(friends) == 0 {
			fmt.Println("No friends found matching the filter criteria.")
			return nil
		}

		fmt.Printf("\nFound %d friends:\n", len(friends))
		fmt.Println(strings.Repeat("-", 80))

		for _, friend := range friends {
			fmt.Printf("• %s (id %d)", friend.Name, friend.ID)
			if friend.Fav != 0 {
				fmt.Printf(" [FAV]")
			}
			if friend.Unread > 0 {
				fmt.Printf(" [%d unread]", friend.Unread)
			}
			fmt.Println()
			if showDetails {
				if friend.LocationCode != "" {
					fmt.Printf("  Location: %s\n", friend.LocationCode)
				}
				if !friend.Dob.IsZero() {
					fmt.Printf("  Born: %s\n", friend.Dob.Format("2006-01-02"))
				}
				if !friend.JoinedAt.IsZero() {
					fmt.Printf("  Joined: %s\n", friend.JoinedAt.Format("2006-01-02"))
				}
				if !friend.LatestComment.IsZero() {
					fmt.Printf("  Last letter: %s\n", friend.LatestComment.Format("2006-01-02 15:04"))
				}
				fmt.Printf("  Letters: %d\n", friend.Total)
			}
		}

		return nil
	})
}
