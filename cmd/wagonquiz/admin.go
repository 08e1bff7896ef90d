package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wagonquiz/internal/service"
)

func runExport(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	db, err := b.RequireSQL()
	if err != nil {
		return err
	}

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = defaultExportPath(time.Now())
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	a.log.Info("exporting database", zap.String("path", outputPath))
	if err := service.NewBackupService(db, a.log).ExportToFile(ctx, outputPath); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Export complete: %s (%.2f KB)\n", outputPath, float64(info.Size())/1024)
	}
	return nil
}

func runImport(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()

	if _, err := os.Stat(importInput); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	if importClear && !importYes {
		answer := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
			ask("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		if answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
			return nil
		}
	}

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	db, err := b.RequireSQL()
	if err != nil {
		return err
	}

	opts := service.ImportOptions{Clear: importClear, HashPINs: importHashPINs}
	stats, err := service.NewBackupService(db, a.log).ImportFromFile(ctx, importInput, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users, %d tests and %d results", stats.Users, stats.Tests, stats.Results)
	if importHashPINs {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d PINs hashed)", stats.HashedPINs)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func runUserAdd(cmd *cobra.Command, a *app, uid string) error {
	ctx := cmd.Context()

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	accounts, err := b.Accounts()
	if err != nil {
		return err
	}

	pin, err := service.NewAccountService(accounts, a.log).AddUser(ctx, uid, userGrade, userPIN)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (grade %s)\n", strings.TrimSpace(uid), strings.TrimSpace(userGrade))
	if userPIN == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "PIN: %s\n", pin)
	}
	return nil
}

func runResetPIN(cmd *cobra.Command, a *app, uid string) error {
	ctx := cmd.Context()

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(a, b)

	accounts, err := b.Accounts()
	if err != nil {
		return err
	}

	pin, err := service.NewAccountService(accounts, a.log).ResetPIN(ctx, uid, userPIN)
	if err != nil {
		return err
	}

	if userPIN == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "New PIN for %s: %s\n", strings.TrimSpace(uid), pin)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "PIN updated for %s\n", strings.TrimSpace(uid))
	}
	return nil
}
