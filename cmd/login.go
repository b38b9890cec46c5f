package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Obtain a bearer token via an emailed passcode",
	Long: `Request a one-time passcode for the given email address (or
slowly.email from config), then exchange it for a bearer token.
Store the printed token in slowly.token or SLOWLY_TOKEN.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := cfg.Slowly.Email
	if len(args) > 0 {
		email = args[0]
	}
	if email == "" {
		return fmt.Errorf("an email address is required (argument or slowly.email in config)")
	}

	ctx := context.Background()

	if err := client.FetchPasscode(ctx, email); err != nil {
		return fmt.Errorf("failed to request passcode: %w", err)
	}
	fmt.Printf("A passcode has been sent to %s.\n", email)
	fmt.Printf("Enter passcode: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return fmt.Errorf("no passcode entered")
	}
	passcode := strings.TrimSpace(scanner.Text())
	if passcode == "" {
		return fmt.Errorf("no passcode entered")
	}

	token, err := client.FetchToken(ctx, email, passcode)
	if err != nil {
		return err
	}

	fmt.Printf("\n✓ Login successful!\n\n")
	fmt.Printf("Token: %s\n\n", token)
	fmt.Println("Save it as slowly.token in your config file or export SLOWLY_TOKEN.")
	return nil
}
