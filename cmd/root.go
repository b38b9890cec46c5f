package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tiagovla/slowly-go/api"
	"github.com/tiagovla/slowly-go/config"
	"github.com/tiagovla/slowly-go/slowly"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *slowly.Client

	// Command flags
	filterExpr string
	preset     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "slowly",
	Short: "A CLI for the Slowly pen-pal service",
	Long: `slowly is a CLI for the Slowly pen-pal web API. It lists your
friends, walks per-friend letter threads page by page, and filters
both with expressions. Authentication uses a bearer token from the
config file or the SLOWLY_TOKEN environment variable; the login
command obtains one via an emailed passcode.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(friendsCmd)
	rootCmd.AddCommand(lettersCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(loginCmd)
}

// initializeApp initializes the configuration and the client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Build the client
	opts := []api.Option{api.WithBaseURL(cfg.Slowly.BaseURL)}
	if cfg.Slowly.Proxy != "" {
		proxy, err := url.Parse(cfg.Slowly.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		opts = append(opts, api.WithProxy(proxy))
	}
	client = slowly.NewClient(logger, slowly.WithSessionOptions(opts...))

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format;Colors only make sense on a terminal
	color := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// requireToken returns the configured bearer token or an error
// explaining how to obtain one.
func requireToken() (string, error) {
	if cfg.Slowly.Token == "" {
		return "", fmt.Errorf("no token configured: set slowly.token in config or SLOWLY_TOKEN, or run 'slowly login'")
	}
	return cfg.Slowly.Token, nil
}

// getFilterExpression determines the filter expression to use.
// An empty result means no filtering.
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset > config default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expression, ok := cfg.Filter.Presets[preset]; ok {
			return expression, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return cfg.Filter.DefaultExpression, nil
}
