package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/zkvote-node/config"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/roster"
)

// Version is the build version, set at build time with -ldflags
var Version = "dev"

// Config holds the application configuration
type Config struct {
	API       APIConfig
	Log       LogConfig
	DB        DBConfig
	Circuit   CircuitConfig
	Artifacts ArtifactsConfig
	Prover    ProverConfig
	Roster    RosterConfig
	Web3      Web3Config
	Admin     AdminConfig
	Datadir   string
}

// APIConfig holds the API-specific configuration
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"`
	DisableAPI bool   `mapstructure:"disableAPI"`
}

// DBConfig holds the storage backend configuration
type DBConfig struct {
	Type string `mapstructure:"type"`
}

// CircuitConfig holds the paths of the circuit files. Empty paths default
// to the artifacts directory.
type CircuitConfig struct {
	VKey string `mapstructure:"vkey"`
	Wasm string `mapstructure:"wasm"`
	Zkey string `mapstructure:"zkey"`
}

// ArtifactsConfig holds the circuit artifacts download configuration
type ArtifactsConfig struct {
	URL     string        `mapstructure:"url"`
	Hash    string        `mapstructure:"hash"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProverConfig holds the proof assembly configuration
type ProverConfig struct {
	Backend string        `mapstructure:"backend"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RosterConfig holds the external voter roster configuration
type RosterConfig struct {
	MongoURL string `mapstructure:"mongoURL"`
	Database string `mapstructure:"database"`
}

// Web3Config holds Ethereum-related configuration
type Web3Config struct {
	RPC      string `mapstructure:"rpc"`
	Contract string `mapstructure:"contract"`
	PrivKey  string `mapstructure:"privkey"`
}

// AdminConfig holds the administrator configuration
type AdminConfig struct {
	Address  string        `mapstructure:"address"`
	TokenTTL time.Duration `mapstructure:"tokenTTL"`
}

// ArtifactsDir returns the directory holding the circuit artifacts.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.Datadir, "artifacts")
}

// loadConfig loads configuration from flags, environment variables, and defaults
func loadConfig() (*Config, error) {
	v := viper.New()

	// Get user's home directory for default datadir
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, config.DefaultDatadir)

	v.SetDefault("api.host", config.DefaultAPIHost)
	v.SetDefault("api.port", config.DefaultAPIPort)
	v.SetDefault("log.level", config.DefaultLogLevel)
	v.SetDefault("log.output", config.DefaultLogOutput)
	v.SetDefault("db.type", config.DefaultDBType)
	v.SetDefault("artifacts.url", config.VoterArtifactsURL)
	v.SetDefault("artifacts.hash", config.VoterManifestHash)
	v.SetDefault("artifacts.timeout", config.DefaultArtifactsTimeout)
	v.SetDefault("prover.backend", config.DefaultProverBackend)
	v.SetDefault("prover.timeout", prover.DefaultRemoteTimeout)
	v.SetDefault("roster.database", roster.DefaultDatabase)
	v.SetDefault("datadir", defaultDatadirPath)

	// Configure flags
	flag.StringP("api.host", "a", config.DefaultAPIHost, "API host")
	flag.IntP("api.port", "p", config.DefaultAPIPort, "API port")
	flag.StringP("log.level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", config.DefaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.Bool("log.disableAPI", false, "disable the API request logging")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for database and artifacts")
	flag.String("db.type", config.DefaultDBType, fmt.Sprintf("database backend (%s or %s)", db.TypePebble, db.TypeInMem))
	flag.String("circuit.vkey", "", "snarkjs verification_key.json path (default: artifacts directory)")
	flag.String("circuit.wasm", "", "circom circuit wasm path, for the rapidsnark prover")
	flag.String("circuit.zkey", "", "circom circuit zkey path, for the rapidsnark prover")
	flag.String("artifacts.url", config.VoterArtifactsURL, "base URL of the circuit artifacts (empty to use local files only)")
	flag.String("artifacts.hash", config.VoterManifestHash, "expected SHA256 hash of the artifacts manifest")
	flag.Duration("artifacts.timeout", config.DefaultArtifactsTimeout, "timeout to download the circuit artifacts")
	flag.String("prover.backend", config.DefaultProverBackend, fmt.Sprintf("proof assembly backend %v", config.ProverBackends))
	flag.String("prover.url", "", "remote prover service URL")
	flag.Duration("prover.timeout", prover.DefaultRemoteTimeout, "remote prover request timeout")
	flag.String("roster.mongoURL", "", "MongoDB URL of the voter roster (disabled if empty)")
	flag.String("roster.database", roster.DefaultDatabase, "MongoDB database of the voter roster")
	flag.StringP("web3.rpc", "w", "", "web3 rpc endpoint to mirror registrations and votes on-chain")
	flag.String("web3.contract", "", "EVoting contract address")
	flag.StringP("web3.privkey", "k", "", "private key of the account sending the contract transactions")
	flag.String("admin.address", "", "Ethereum address allowed to sign admin tokens (admin endpoints disabled if empty)")
	flag.Duration("admin.tokenTTL", 0, "validity window of the admin tokens (default 24h)")

	// Configure usage information
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "zkvote-node v%s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: zkvote-node [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, ZKVOTE_ADMIN_ADDRESS or ZKVOTE_API_PORT\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Start with the default artifacts and an admin\n")
		fmt.Fprintf(os.Stderr, "  zkvote-node --admin.address=0x123...\n\n")
		fmt.Fprintf(os.Stderr, "  # Start with a local setup and a remote prover\n")
		fmt.Fprintf(os.Stderr, "  zkvote-node --artifacts.url= --prover.backend=remote --prover.url=http://prover:8080/prove\n")
	}

	// Parse flags
	flag.CommandLine.SortFlags = false
	flag.Parse()

	// Configure Viper to use environment variables
	v.SetEnvPrefix("ZKVOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind flags to Viper
	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.DB.Type != db.TypePebble && cfg.DB.Type != db.TypeInMem {
		return fmt.Errorf("invalid database type %q", cfg.DB.Type)
	}
	if !config.ValidProverBackend(cfg.Prover.Backend) {
		return fmt.Errorf("invalid prover backend %q, available backends: %v", cfg.Prover.Backend, config.ProverBackends)
	}
	if cfg.Prover.Backend == config.ProverRemote && cfg.Prover.URL == "" {
		return fmt.Errorf("the remote prover requires --prover.url")
	}
	if cfg.Admin.Address != "" && !common.IsHexAddress(cfg.Admin.Address) {
		return fmt.Errorf("invalid admin address %q", cfg.Admin.Address)
	}
	if cfg.Web3.RPC != "" && !common.IsHexAddress(cfg.Web3.Contract) {
		return fmt.Errorf("a valid contract address is required with --web3.rpc")
	}
	return nil
}
