// Package cli builds the planner command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/app"
	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

var (
	cfgFile string
	v       *viper.Viper
	rootCmd *cobra.Command
)

func init() {
	v = model.NewViper()

	rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Terminal client for the planner project service",
		Long: `planner signs in to a planner server and lets you manage projects and
tasks from the terminal: a task list, a status board with keyboard drag and
drop, and generated schedules.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", model.DefaultConfigPath(), "config file")
	flags.String("base-url", "", "server base URL (overrides api.base_url)")
	flags.String("log-level", "", "log level (overrides log.level)")
	_ = v.BindPFlag("api.base_url", flags.Lookup("base-url"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// env is everything a command needs to talk to the server.
type env struct {
	cfg     *model.AppConfig
	log     *logrus.Logger
	logFile *os.File
	session *credential.Session
	client  *api.Client
}

func (e *env) Close() {
	if e.logFile != nil {
		e.logFile.Close()
	}
}

func setup() (*env, error) {
	cfg, err := model.LoadConfigFrom(v, cfgFile)
	if err != nil {
		return nil, err
	}

	log, logFile, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	vault, err := credential.OpenVault(model.ConfigDir())
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	session := credential.NewSession(vault, log.WithField("component", "credential"))

	client := api.NewClient(cfg.API.BaseURL, session,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithLogger(log.WithField("component", "api")),
	)

	return &env{cfg: cfg, log: log, logFile: logFile, session: session, client: client}, nil
}

// newLogger writes JSON lines to the configured file; the terminal belongs
// to the UI.
func newLogger(c model.LogConfig) (*logrus.Logger, *os.File, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if c.Path == "" {
		log.SetOutput(os.Stderr)
		return log, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

func openStore(path string) (*store.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := openStore(e.cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	if n, err := s.PurgeOtherSessions(context.Background()); err != nil {
		e.log.WithError(err).Warn("purging stale sessions")
	} else if n > 0 {
		e.log.WithField("rows", n).Info("purged stale session cache")
	}

	e.log.WithField("base_url", e.cfg.API.BaseURL).Info("starting planner")

	m := app.New(app.Config{
		Client:      e.client,
		Session:     e.session,
		Store:       s,
		DefaultView: e.cfg.Display.DefaultView,
		Log:         e.log,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
