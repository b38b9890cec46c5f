package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiagovla/slowly-go/slowly"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Fetch the authenticated user's profile",
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	token, err := requireToken()
	if err != nil {
		return err
	}

	return client.Run(token, func(ctx context.Context, c *slowly.Client) error {
		profile, err := c.FetchClientProfile(ctx)
		if err != nil {
			return err
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, profile, "", "  "); err != nil {
			// Non-JSON body, print as-is.
			fmt.Println(string(profile))
			return nil
		}
		fmt.Println(pretty.String())
		return nil
	})
}
