package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/common"
	"github.com/h0rv/spira/internal/config"
	"github.com/h0rv/spira/internal/spira"
	"github.com/h0rv/spira/internal/store"
	"github.com/h0rv/spira/internal/tui"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
)

var (
	// CLI flags
	configFlag   string
	logLevelFlag string
	logOutFlag   []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spira",
		Short: "Terminal client for SpiraTeam",
		Long: `spira is a terminal client for SpiraTeam.

It shows the requirements, tasks and incidents assigned to you in one board,
opens them in the browser, and creates new artifacts in your projects.

Authentication:
  1. Credentials file: Run 'spira login' or log in from the TUI (preferred)
  2. Environment variables: Set SPIRA_URL, SPIRA_USERNAME and SPIRA_TOKEN

The token is the RSS token shown under My Profile in SpiraTeam.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringSliceVar(&logOutFlag, "log-output", nil, "Log outputs: file, console")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newListCmd(),
		newProjectsCmd(),
		newFormCmd(),
		newCreateCmd(),
		newOpenCmd(),
		newMyPageCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// session holds everything a command needs to talk to SpiraTeam.
type session struct {
	cfg       *config.Config
	logger    arbor.ILogger
	files     *auth.FileStore
	credStore auth.Store
	creds     auth.Credentials
	haveCreds bool
	credsErr  error // Why there are no credentials
	service   *spira.Service
}

// newSession loads configuration and credentials. Without usable
// credentials, later writes go to the credentials file.
func newSession() (*session, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	config.ApplyFlagOverrides(cfg, logLevelFlag, logOutFlag)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := common.InitLogger(cfg)
	files := auth.NewFileStore(cfg.Credentials.Path)

	s := &session{cfg: cfg, logger: logger, files: files}

	creds, credStore, err := auth.Resolve(files)
	if err == nil {
		s.creds, s.credStore, s.haveCreds = creds, credStore, true
	} else {
		logger.Debug().Err(err).Msg("No usable credentials")
		s.credStore = files
		s.credsErr = err
	}

	client := spira.NewClient(
		spira.WithTimeout(cfg.RequestTimeout()),
		spira.WithLogger(logger),
		spira.WithRateLimit(cfg.Server.RateLimit),
		spira.WithAPIPrefix(cfg.Server.APIPrefix),
		spira.WithConcurrency(cfg.Sync.Concurrency),
		spira.WithPageSize(cfg.Sync.PageSize),
		spira.WithIncidentSource(spira.IncidentSource(cfg.Sync.IncidentSource)),
	)
	s.service = spira.NewService(client, s.credStore)
	return s, nil
}

// requireCredentials returns the session's credentials or the reason there are none.
func (s *session) requireCredentials() (auth.Credentials, error) {
	if !s.haveCreds {
		return auth.Credentials{}, s.credsErr
	}
	return s.creds, nil
}

func run(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	s.logger.Info().Bool("logged_in", s.haveCreds).Msg("Starting TUI")

	app := tui.NewAppModel(s.service, store.New(), s.credStore, cmd.Context(), s.creds, s.haveCreds, s.logger)

	// Run Bubble Tea program
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}
