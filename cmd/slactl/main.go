package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/config"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/database"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/notifications"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/sla"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "slactl",
	Short: "Operator tool for the SLA compliance engine",
	Long: `slactl drives the SLA compliance and escalation engine from the
command line: trigger a one-off evaluation run or inspect the configured
milestone thresholds.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one evaluation cycle and print the batch report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, cleanup, err := buildEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "List the configured SLA thresholds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		thresholds, err := repository.NewThresholdRepository(db).ListThresholds(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CASE TYPE\tMILESTONE\tLOCATION TYPE\tSECONDS")
		for _, t := range thresholds {
			loc := "-"
			if t.LocationTypeID != nil {
				loc = fmt.Sprintf("%d", *t.LocationTypeID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", t.CaseTypeID, t.MilestoneType, loc, t.TimeSeconds)
		}
		return w.Flush()
	},
}

func connect(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	if err := config.Load(configPath); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func buildEngine(ctx context.Context) (*sla.Service, func(), error) {
	cfg, db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	caseRepo := repository.NewCaseRepository(db)
	thresholdRepo := repository.NewThresholdRepository(db)
	dealerRepo := repository.NewDealerRepository(db)
	detailRepo := repository.NewSlaDetailRepository(db)
	resolver := sla.NewResolver(thresholdRepo, nil)
	sender := notifications.NewSMTPSender(&cfg.Email)

	engine := sla.NewService(
		caseRepo, resolver, dealerRepo, dealerRepo, caseRepo, caseRepo, detailRepo, sender,
		sla.Options{
			WarningWindow: cfg.Sla.WarningWindow,
			NotifyTimeout: cfg.Sla.NotifyTimeout,
			BatchLimit:    cfg.Sla.BatchLimit,
			Location:      cfg.App.Location(),
			Logger:        log.New(os.Stderr, "", log.LstdFlags),
		})
	return engine, func() { db.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(thresholdsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
