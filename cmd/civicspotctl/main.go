package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/civicspot/internal/apiclient"
	"github.com/civicspot/internal/config"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/logger"
	"github.com/civicspot/internal/session"
	"github.com/civicspot/internal/tokenstore"
)

func main() {
	rootCmd := newRootCmd(openClient)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// clientOpener builds a hydrated session for the backend at apiURL
// (empty = configured default).
type clientOpener func(ctx context.Context, apiURL string) (*client, error)

func newRootCmd(openFn clientOpener) *cobra.Command {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:   "civicspotctl",
		Short: "Sign in to CivicSpot from the command line",
		Long: `civicspotctl manages a CivicSpot session from a terminal.

The credential is kept in the same token store as the shell server, so a
login here survives restarts and is picked up by the shell when it next starts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "backend base URL (overrides API_BASE_URL)")

	open := func(cmd *cobra.Command) (*client, error) {
		return openFn(cmd.Context(), apiURL)
	}

	rootCmd.AddCommand(
		loginCmd(open),
		registerCmd(open),
		logoutCmd(open),
		whoamiCmd(open),
		profileCmd(open),
	)
	return rootCmd
}

// printError reports a failed command, with the backend's own words when
// it rejected the call.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", domain.PublicMessage(err))
	if msg := backendMessage(err); msg != "" {
		fmt.Fprintf(w, "       %s\n", msg)
	}
}

// client is a hydrated session plus what it was built from
type client struct {
	session *session.Controller
	store   tokenstore.Store
}

func (c *client) Close() error {
	return c.store.Close()
}

func openClient(ctx context.Context, apiURL string) (*client, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	// Keep command output clean; only warnings reach stderr.
	log := logger.New(os.Stderr, constants.EnvProduction, cfg.LogJSON)

	origin, err := domain.NewOrigin(cfg.APIBaseURL)
	if err != nil {
		return nil, err
	}
	store, err := tokenstore.Open(cfg.TokenStore.Driver, cfg.TokenStore.Path, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	binding := apiclient.NewBinding()
	api, err := apiclient.NewClient(cfg.APIBaseURL, binding, apiclient.WithLogger(log))
	if err != nil {
		store.Close()
		return nil, err
	}

	ctrl, err := session.New(store, binding, api,
		session.WithLogger(log),
		session.WithHydrateTimeout(constants.CLIRequestTimeout),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	ctrl.Hydrate(ctx)
	return &client{session: ctrl, store: store}, nil
}
