// Package main provides the command line host for wagonquiz.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wagonquiz/internal/backend"
	"wagonquiz/internal/config"
	"wagonquiz/internal/logging"
	"wagonquiz/internal/service"
	"wagonquiz/internal/session"
)

var (
	loginUID string
	loginPIN string

	resultsLimit int

	exportOutput string

	importInput    string
	importClear    bool
	importHashPINs bool
	importYes      bool

	userGrade string
	userPIN   string
)

// app is built once the root command starts running
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	prefs session.Store
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{})
}

// newRootCmdFor builds the command tree around a. Fields already set on a
// are kept by init.
func newRootCmdFor(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wagonquiz",
		Short:         "Find the previous and next number",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = a.log.Sync()
		},
	}

	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newPlayCmd(a))
	rootCmd.AddCommand(newResultsCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newUserCmd(a))

	return rootCmd
}

func (a *app) init() error {
	if a.cfg == nil {
		a.cfg = config.Load()
	}
	if a.log == nil {
		log, err := logging.New(a.cfg.LogLevel, a.cfg.LogFile)
		if err != nil {
			return err
		}
		a.log = log
	}
	if a.prefs == nil {
		a.prefs = session.NewFileStore(a.cfg.PrefsPath)
	}
	return nil
}

func (a *app) openBackend(ctx context.Context) (*backend.Backend, error) {
	b, err := backend.Open(ctx, a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open backend: %w", err)
	}
	return b, nil
}

func closeBackend(a *app, b *backend.Backend) {
	if err := b.Close(); err != nil {
		a.log.Warn("failed to close backend", zap.Error(err))
	}
}

// playerError replaces a service error with the message meant for the
// player, keeping the detail in the log
func (a *app) playerError(msg string, err error) error {
	a.log.Debug(msg, zap.Error(err))
	return errors.New(service.UserMessage(err))
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your UID and PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, a)
		},
	}
	cmd.Flags().StringVar(&loginUID, "uid", "", "your user id")
	cmd.Flags().StringVar(&loginPIN, "pin", "", "your PIN (asked for when omitted)")
	return cmd
}

func runLogin(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	in := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	uid := loginUID
	if uid == "" {
		uid = in.ask("UID: ")
	}
	pin := loginPIN
	if pin == "" {
		pin = in.ask("PIN: ")
	}

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	verifier := service.NewVerifier(b.Users, a.prefs, a.cfg.RequestTimeout, a.log)
	identity, err := verifier.Login(ctx, uid, pin)
	if err != nil {
		return a.playerError("login failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (grade %d)\n", identity.Identifier, identity.Grade)
	return nil
}

func newPlayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play rounds as the logged-in player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd, a)
		},
	}
}

func runPlay(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	recorder := service.NewRecorder(b.Results, a.cfg.RequestTimeout, a.log)
	// results are written in the background; let them land before exiting
	defer recorder.Wait()

	loader := service.NewConfigLoader(b.Tests, service.ParseMergePolicy(a.cfg.ConfigMerge), a.cfg.RequestTimeout, a.log)
	plays := service.NewPlayService(loader, recorder, a.prefs, a.log)

	play, err := plays.BeginFromStore(ctx)
	if err != nil {
		return a.playerError("could not start round", err)
	}

	return runGame(newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), play)
}

func newResultsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show your latest results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResults(cmd, a)
		},
	}
	cmd.Flags().IntVar(&resultsLimit, "limit", 10, "number of results to show (0 for all)")
	return cmd
}

func runResults(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	if resultsLimit < 0 {
		return errors.New("--limit must not be negative")
	}

	identity, err := a.prefs.Load()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	results, err := service.NewResults(b.Results, a.cfg.RequestTimeout).History(ctx, identity.Identifier, resultsLimit)
	if err != nil {
		return a.playerError("could not list results", err)
	}

	printResults(cmd.OutOrStdout(), results)
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.prefs.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export users, tests and results as JSON (SQL backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, a)
		},
	}
	cmd.Flags().StringVar(&exportOutput, "output", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON export into the SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, a)
		},
	}
	cmd.Flags().StringVar(&importInput, "input", "", "input file path (required)")
	cmd.Flags().BoolVar(&importClear, "clear", false, "clear existing data before import (WARNING: destructive)")
	cmd.Flags().BoolVar(&importHashPINs, "hash-pins", false, "store plaintext PINs as bcrypt hashes")
	cmd.Flags().BoolVar(&importYes, "yes", false, "do not ask for confirmation")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage players (SQL backend)",
	}

	addCmd := &cobra.Command{
		Use:   "add <uid>",
		Short: "Create or replace a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, a, args[0])
		},
	}
	addCmd.Flags().StringVar(&userGrade, "grade", "", "school grade (required)")
	addCmd.Flags().StringVar(&userPIN, "pin", "", "PIN (generated when omitted)")
	_ = addCmd.MarkFlagRequired("grade")

	resetCmd := &cobra.Command{
		Use:   "reset-pin <uid>",
		Short: "Replace a player's PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPIN(cmd, a, args[0])
		},
	}
	resetCmd.Flags().StringVar(&userPIN, "pin", "", "new PIN (generated when omitted)")

	userCmd.AddCommand(addCmd, resetCmd)
	return userCmd
}

func defaultExportPath(now time.Time) string {
	return fmt.Sprintf("backup_%s.json", now.Format("20060102_150405"))
}
