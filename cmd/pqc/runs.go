package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qrypta/pqc/internal/cli"
	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/service"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id|tx-hash]",
	Short: "Show journaled runs",
	Long: `Lists the newest runs recorded in the run journal (JOURNAL_ENABLED=true),
or shows one run by its run id or transaction hash.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(cmd); err != nil {
		return err
	}

	logger, err := initLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	journalCfg := config.LoadJournalConfig()
	if !journalCfg.Enabled {
		return models.NewError(models.KindConfiguration, "the run journal is disabled: set JOURNAL_ENABLED=true")
	}

	journal := service.NewJournalService(journalCfg, logger)
	defer journal.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := journal.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no journaled run matches %s", args[0])
		}
		fmt.Fprintln(out, cli.RenderRun(run))
		return nil
	}

	runs, err := journal.RecentRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	logger.Info("Listing runs", zap.Int("count", len(runs)))

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CREATED\tRUN ID\tCHAIN\tAMOUNT\tSTATE\tTX")
	for _, run := range runs {
		tx := "-"
		if run.TxHash != nil {
			tx = *run.TxHash
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.CreatedAt.UTC().Format("2006-01-02 15:04:05"), run.RunID, run.Chain, run.AmountHuman, run.State, tx)
	}
	return w.Flush()
}
