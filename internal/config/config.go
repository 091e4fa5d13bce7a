package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/validation"
)

// Config holds all configuration for a pipeline run. It is built once at
// startup and passed by value; nothing reads the environment afterwards.
type Config struct {
	Project    string
	Chains     map[models.ChainKey]ChainConfig
	Operator   OperatorConfig
	Prover     ProverConfig
	Submission SubmissionConfig
	Journal    JournalConfig
}

// ChainConfig holds configuration for an EVM chain
type ChainConfig struct {
	Key             models.ChainKey
	Name            string
	ChainID         int64
	RPCEndpoint     string
	ContractAddress string // quantumTransferZK contract
	ExplorerTxURL   string // transaction hash is appended
}

// OperatorConfig holds the signing credential
type OperatorConfig struct {
	EVMPrivateKey string
}

// ProverConfig holds proving service configuration
type ProverConfig struct {
	URL             string
	Timeout         time.Duration
	DeadlineMinutes int
}

// SubmissionConfig holds transaction confirmation settings
type SubmissionConfig struct {
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
}

// JournalConfig holds PostgreSQL configuration for the optional run journal
type JournalConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (Config, error) {
	cfg := Config{
		Project: getEnv("PROJECT_NAME", "QRYPTA"),
		Chains:  make(map[models.ChainKey]ChainConfig),
		Operator: OperatorConfig{
			EVMPrivateKey: getEnv("OWNER_PK", ""),
		},
		Prover: ProverConfig{
			URL:             getEnv("PROVER_URL", ""),
			Timeout:         time.Duration(getEnvInt("PROVER_TIMEOUT_SECONDS", 900)) * time.Second,
			DeadlineMinutes: getEnvInt("DEFAULT_DEADLINE_MINUTES", 30),
		},
		Submission: SubmissionConfig{
			ConfirmationTimeout: time.Duration(getEnvInt("CONFIRMATION_TIMEOUT_SECONDS", 300)) * time.Second,
			PollInterval:        time.Duration(getEnvInt("CONFIRMATION_POLL_SECONDS", 2)) * time.Second,
		},
		Journal: LoadJournalConfig(),
	}

	if err := loadChainConfigs(&cfg); err != nil {
		return Config{}, models.WrapError(models.KindConfiguration, "invalid chain configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, models.WrapError(models.KindConfiguration, "invalid configuration", err)
	}

	return cfg, nil
}

// LoadJournalConfig loads only the run journal settings, for commands that
// read the journal without running the pipeline
func LoadJournalConfig() JournalConfig {
	return JournalConfig{
		Enabled:  getEnvBool("JOURNAL_ENABLED", false),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "pqc_journal"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

// FakeProverConfig holds configuration for the development proving service
type FakeProverConfig struct {
	Port            int
	DeadlineMinutes int
}

// LoadFakeProverConfig loads the development prover configuration
func LoadFakeProverConfig() (FakeProverConfig, error) {
	cfg := FakeProverConfig{
		Port:            getEnvInt("FAKE_PROVER_PORT", 8081),
		DeadlineMinutes: getEnvInt("DEFAULT_DEADLINE_MINUTES", 30),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return FakeProverConfig{}, models.Errorf(models.KindConfiguration, "invalid FAKE_PROVER_PORT: %d", cfg.Port)
	}
	if cfg.DeadlineMinutes <= 0 {
		return FakeProverConfig{}, models.Errorf(models.KindConfiguration, "invalid DEFAULT_DEADLINE_MINUTES: %d", cfg.DeadlineMinutes)
	}
	return cfg, nil
}

// chainDef describes where each supported chain's settings live
type chainDef struct {
	name        string
	chainID     int64
	rpcEnv      string
	contractEnv string
	explorerTx  string
}

var knownChains = map[models.ChainKey]chainDef{
	models.ChainEthereum: {
		name:        "Ethereum Mainnet",
		chainID:     1,
		rpcEnv:      "RPC_ETH",
		contractEnv: "QRYP_CONTRACT_ETH",
		explorerTx:  "https://etherscan.io/tx/",
	},
	models.ChainBNB: {
		name:        "BNB Chain (BSC) Mainnet",
		chainID:     56,
		rpcEnv:      "RPC_BNB",
		contractEnv: "QRYP_CONTRACT_BNB",
		explorerTx:  "https://bscscan.com/tx/",
	},
}

// ChainLabel returns the display name of a chain, configured or not
func ChainLabel(key models.ChainKey) string {
	if def, ok := knownChains[key]; ok {
		return def.name
	}
	return string(key)
}

// loadChainConfigs enables every chain whose RPC endpoint is set.
// A chain with an RPC endpoint but no contract address is an error, not a fallback.
func loadChainConfigs(cfg *Config) error {
	for _, key := range models.SupportedChains {
		def := knownChains[key]

		rpc := getEnv(def.rpcEnv, "")
		if rpc == "" {
			continue
		}

		contract := getEnv(def.contractEnv, "")
		if contract == "" {
			return fmt.Errorf("%s is required when %s is set", def.contractEnv, def.rpcEnv)
		}
		if err := validation.ValidateAddress(contract); err != nil {
			return fmt.Errorf("%s: %w", def.contractEnv, err)
		}

		cfg.Chains[key] = ChainConfig{
			Key:             key,
			Name:            def.name,
			ChainID:         def.chainID,
			RPCEndpoint:     rpc,
			ContractAddress: contract,
			ExplorerTxURL:   def.explorerTx,
		}
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Operator.EVMPrivateKey == "" {
		return fmt.Errorf("OWNER_PK is required")
	}

	if c.Prover.URL == "" {
		return fmt.Errorf("PROVER_URL is required")
	}

	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured (RPC_ETH or RPC_BNB)")
	}

	if c.Prover.Timeout <= 0 {
		return fmt.Errorf("invalid prover timeout: %s", c.Prover.Timeout)
	}

	if c.Prover.DeadlineMinutes <= 0 {
		return fmt.Errorf("invalid deadline minutes: %d", c.Prover.DeadlineMinutes)
	}

	if c.Submission.ConfirmationTimeout <= 0 {
		return fmt.Errorf("invalid confirmation timeout: %s", c.Submission.ConfirmationTimeout)
	}

	if c.Submission.PollInterval <= 0 {
		return fmt.Errorf("invalid confirmation poll interval: %s", c.Submission.PollInterval)
	}

	if c.Journal.Enabled && c.Journal.Host == "" {
		return fmt.Errorf("DB_HOST is required when the journal is enabled")
	}

	return nil
}

// Chain returns the configuration of a chain selected by the operator
func (c Config) Chain(key models.ChainKey) (ChainConfig, error) {
	chainCfg, ok := c.Chains[key]
	if !ok {
		def, known := knownChains[key]
		if !known {
			return ChainConfig{}, models.Errorf(models.KindConfiguration, "chain %q is not supported", key)
		}
		return ChainConfig{}, models.Errorf(models.KindConfiguration,
			"chain %s is not configured: set %s and %s", key, def.rpcEnv, def.contractEnv)
	}
	return chainCfg, nil
}

// ConfiguredChains returns the configured chain keys in display order
func (c Config) ConfiguredChains() []models.ChainKey {
	keys := make([]models.ChainKey, 0, len(c.Chains))
	for _, key := range models.SupportedChains {
		if _, ok := c.Chains[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
