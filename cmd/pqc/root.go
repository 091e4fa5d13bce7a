package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qrypta/pqc/internal/blockchain/evm"
	"qrypta/pqc/internal/cli"
	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/pipeline"
	"qrypta/pqc/internal/prover"
	"qrypta/pqc/internal/service"
)

const defaultEnvFile = ".env"

var (
	envFile        string
	verbose        bool
	chainFlag      string
	recipientFlag  string
	amountFlag     string
	titleFlag      string
	dryRun         bool
	fakeProof      bool
	assumeYes      bool
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "pqc",
	Short: "Prove and submit a quantumTransferZK transfer",
	Long: `pqc collects a transfer intent, obtains a zero-knowledge proof for it from
the proving service at PROVER_URL and submits quantumTransferZK on the selected
chain, then reports the confirmed receipt.

Configuration is read from the environment, optionally from a .env file:
  OWNER_PK, PROVER_URL, RPC_ETH/QRYP_CONTRACT_ETH, RPC_BNB/QRYP_CONTRACT_BNB

PROVER_URL must answer POST /prove with { publicValues, proofBytes }.`,
	Example: `  pqc
  pqc --chain bnb --recipient 0x... --amount 1.25 --dry-run
  pqc --chain eth --recipient 0x... --amount 2.5 --title "INVOICE 42" --non-interactive --yes`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTransfer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "path to a .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info-level logging")

	rootCmd.Flags().StringVar(&chainFlag, "chain", "", "target network (eth or bnb)")
	rootCmd.Flags().StringVar(&recipientFlag, "recipient", "", "recipient address (0x + 40 hex characters)")
	rootCmd.Flags().StringVar(&amountFlag, "amount", "", "amount in whole tokens, e.g. 1.25")
	rootCmd.Flags().StringVar(&titleFlag, "title", "", "ISO reference title (default \""+pipeline.DefaultReferenceTitle+"\")")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and show the summary without proving or broadcasting")
	rootCmd.Flags().BoolVar(&fakeProof, "fake", false, "ask the prover for a fake development proof")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; all fields must come from flags")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(cmd); err != nil {
		return err
	}

	logger, err := initLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		zap.String("project", cfg.Project),
		zap.Int("num_chains", len(cfg.Chains)),
		zap.Bool("journal_enabled", cfg.Journal.Enabled))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	preset := pipeline.StaticInput{
		ChainKey:       models.ChainKey(chainFlag),
		RecipientAddr:  recipientFlag,
		AmountHuman:    amountFlag,
		ReferenceTitle: titleFlag,
	}

	out := cmd.OutOrStdout()
	var input pipeline.InputProvider = preset
	if !nonInteractive {
		fmt.Fprintln(out, cli.RenderHeader())
		input = cli.NewPrompt(cmd.InOrStdin(), out, preset)
	}

	deps := pipeline.Dependencies{
		Input:     input,
		Prover:    prover.NewClient(cfg.Prover.URL, cfg.Prover.Timeout, logger),
		Submitter: evm.NewSubmitter(nil, cfg.Submission, logger),
		Observer:  cli.NewProgress(out),
	}

	if cfg.Journal.Enabled {
		journal := service.NewJournalService(cfg.Journal, logger)
		defer journal.Close()
		deps.Recorder = journal
	}

	p := pipeline.New(cfg, deps, pipeline.Options{
		DryRun:    dryRun,
		AssumeYes: assumeYes,
		Fake:      fakeProof,
	}, logger)

	_, err = p.Run(ctx)
	return err
}

// loadEnvFile loads the .env file. The default file is optional; one named
// explicitly must exist.
func loadEnvFile(cmd *cobra.Command) error {
	err := godotenv.Load(envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	return models.WrapError(models.KindConfiguration, "failed to load env file "+envFile, err)
}

// initLogger logs to stderr so prompts and summaries on stdout stay readable
func initLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if os.Getenv("ENV") == "production" {
		cfg = zap.NewProductionConfig()
	}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
