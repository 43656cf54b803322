package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(configPath *string) *cobra.Command {
	var (
		year     int
		subround int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the progress and allocation report to an .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			q := progress.Query{Year: year, Subround: subround}
			if !cmd.Flags().Changed("year") {
				q.Year = a.cfg.Report.Year(time.Now())
			}
			if out == "" {
				out = service.ReportFileName(q)
			}

			// Whole-catalog view, the same as an administrator sees.
			actor := service.Actor{Role: domain.RoleAdmin}
			if err := writeReportFile(cmd.Context(), a.services.export, actor, q, out); err != nil {
				return err
			}
			a.logger.Info("report written", zap.String("file", out))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Report year, 0 for all years (default: configured year)")
	cmd.Flags().IntVar(&subround, "subround", 0, "Subround 1-3, 0 for the whole year")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: derived from year and subround)")
	return cmd
}

// writeReportFile builds the whole workbook in memory so a failed export
// leaves no partial file behind.
func writeReportFile(ctx context.Context, svc service.ExportService, actor service.Actor, q progress.Query, out string) error {
	var buf bytes.Buffer
	if err := svc.Write(ctx, actor, q, &buf); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.services.auth.Register(cmd.Context(), name, email, password, domain.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
