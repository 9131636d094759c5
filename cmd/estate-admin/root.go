package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/estatehub/admin-gateway/internal/app"
	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/interceptor"
	"github.com/spf13/cobra"
)

// cli holds what the commands share. The application is built on first use so that
// commands like version work without any configuration.
type cli struct {
	configDir string
	output    string
	debug     bool
	logLevel  *slog.LevelVar
	logOutput io.Writer

	configHandler *config.ConfigHandler
	config        config.Config
	app           *app.App
}

func (c *cli) load(cmd *cobra.Command) (*app.App, error) {
	return c.loadWith(cmd, sessionExpiredHint(cmd.ErrOrStderr()))
}

func (c *cli) loadWith(cmd *cobra.Command, onAuthFailure interceptor.AuthFailureHandler) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	c.configHandler = config.NewConfigHandler(c.configDir)
	gwConfig, err := c.configHandler.Config()
	if err != nil {
		return nil, fmt.Errorf("loading the configuration failed: %w", err)
	}
	if gwConfig.DebugMode || c.debug {
		c.logLevel.Set(slog.LevelDebug)
	}
	slog.Debug("CLI", "message", "loaded config", "config", gwConfig)
	options := []app.AppOption{
		app.WithConfig(gwConfig),
		app.WithAuthFailureHandler(onAuthFailure),
	}
	application, err := app.New(options...)
	if err != nil {
		return nil, err
	}
	c.config = gwConfig
	c.app = application
	return application, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		slog.Warn("CLI", "message", "closing the session storage failed", "error", err)
	}
	c.app = nil
}

// sessionExpiredHint is the CLI version of sending the user back to the login page.
func sessionExpiredHint(out io.Writer) interceptor.AuthFailureHandler {
	return func(req *http.Request, res *http.Response) {
		fmt.Fprintln(out, "Your session has expired, run 'estate-admin login' to sign in again.")
	}
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok && buildInfo != nil {
		return buildInfo.Main.Version
	}
	return ""
}

func newCLI() *cli {
	return &cli{logLevel: &slog.LevelVar{}}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "estate-admin",
		Short: "Manage the real estate catalog from the command line",
		Long: `estate-admin keeps an authenticated session with the real estate REST API and
manages companies, projects and units. Expired access tokens are renewed automatically.`,
		Example: `
# Sign in
estate-admin login -u admin

# List the available units of a project as JSON
estate-admin units list --project 3 --status available -o json

# Serve the admin console gateway on localhost
estate-admin serve
  `,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			out := c.logOutput
			if out == nil {
				out = cmd.ErrOrStderr()
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: c.logLevel})))
			if c.debug {
				c.logLevel.Set(slog.LevelDebug)
			} else {
				c.logLevel.Set(slog.LevelWarn)
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configDir, "config-dir", "C", "", "Directory containing config.yaml and secret_config.yaml")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputYAML, "Output format (yaml or json)")
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "Debug logging")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.whoamiCmd(),
		c.companiesCmd(),
		c.projectsCmd(),
		c.unitsCmd(),
		c.uploadCmd(),
		c.usersCmd(),
		c.serveCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}
