package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-node/api"
	"github.com/vocdoni/zkvote-node/auth"
	"github.com/vocdoni/zkvote-node/circuits"
	"github.com/vocdoni/zkvote-node/circuits/voter"
	"github.com/vocdoni/zkvote-node/config"
	"github.com/vocdoni/zkvote-node/crypto/hash/poseidon"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/metadb"
	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/ledger"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/roster"
	"github.com/vocdoni/zkvote-node/service"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
	"github.com/vocdoni/zkvote-node/verifier"
	"github.com/vocdoni/zkvote-node/web3"
)

// openDatabase opens the storage database.
var openDatabase = metadb.New

// Services holds all the running services
type Services struct {
	DB       db.Database
	Storage  *storage.Storage
	Ledger   *ledger.Ledger
	Roster   roster.Roster
	Contract *web3.Contract
	API      *service.APIService
}

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	log.Infow("starting zkvote-node", "version", Version)

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup services
	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}
	defer shutdownServices(services)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// prepareArtifacts downloads the circuit artifacts, or verifies the local
// ones when no URL is configured.
func prepareArtifacts(cfg *Config) error {
	dir := cfg.ArtifactsDir()
	if cfg.Artifacts.URL == "" {
		if _, err := os.Stat(filepath.Join(dir, circuits.ManifestFile)); errors.Is(err, os.ErrNotExist) {
			log.Warnw("no circuit artifacts manifest, using the configured files as they are", "dir", dir)
			return nil
		}
	}
	var hash types.HexBytes
	if cfg.Artifacts.Hash != "" {
		var err error
		if hash, err = types.HexStringToHexBytes(cfg.Artifacts.Hash); err != nil {
			return fmt.Errorf("invalid artifacts hash: %w", err)
		}
	}
	manifest, err := service.DownloadArtifacts(cfg.Artifacts.Timeout, dir, cfg.Artifacts.URL, hash)
	if err != nil {
		return err
	}
	log.Infow("circuit artifacts ready", "circuit", manifest.Circuit, "files", manifest.Names())
	return nil
}

// loadVerificationKey reads the snarkjs verification key.
func loadVerificationKey(cfg *Config) (*circomgnark.CircomVerificationKey, error) {
	path := cfg.Circuit.VKey
	if path == "" {
		path = filepath.Join(cfg.ArtifactsDir(), voter.VerificationKeyJSONFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return circomgnark.UnmarshalCircomVerificationKeyJSON(data)
}

// newProver returns the configured proof backend, or nil if proof assembly
// is disabled.
func newProver(cfg *Config) (prover.Prover, error) {
	switch cfg.Prover.Backend {
	case config.ProverGnark:
		keys, err := voter.LoadKeys(cfg.ArtifactsDir())
		if err != nil {
			return nil, fmt.Errorf("failed to load voter circuit keys: %w", err)
		}
		return prover.NewGnarkProver(keys)
	case config.ProverRapidsnark:
		wasm, zkey := cfg.Circuit.Wasm, cfg.Circuit.Zkey
		if wasm == "" {
			wasm = filepath.Join(cfg.ArtifactsDir(), "voter.wasm")
		}
		if zkey == "" {
			zkey = filepath.Join(cfg.ArtifactsDir(), "voter.zkey")
		}
		return prover.LoadRapidsnarkProver(wasm, zkey)
	case config.ProverRemote:
		return prover.NewRemoteProver(cfg.Prover.URL, cfg.Prover.Timeout)
	}
	return nil, nil
}

// setupServices initializes and starts all required services. On error
// the services started so far are shut down.
func setupServices(ctx context.Context, cfg *Config) (_ *Services, err error) {
	services := &Services{}
	defer func() {
		if err != nil {
			shutdownServices(services)
		}
	}()

	// Prepare circuit artifacts and the verifier
	if err := prepareArtifacts(cfg); err != nil {
		return nil, fmt.Errorf("failed to prepare artifacts: %w", err)
	}
	vk, err := loadVerificationKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification key: %w", err)
	}
	proofVerifier, err := verifier.New(vk)
	if err != nil {
		return nil, err
	}

	// Initialize the hasher eagerly, so a broken backend fails at startup
	hasher := poseidon.NewHasher(nil)
	if err := hasher.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize poseidon: %w", err)
	}
	ids := identity.New(hasher)

	// Initialize storage database
	log.Infow("initializing storage", "datadir", cfg.Datadir, "type", cfg.DB.Type)
	services.DB, err = openDatabase(cfg.DB.Type, filepath.Join(cfg.Datadir, "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	services.Storage = storage.New(services.DB)
	services.Ledger, err = ledger.New(services.Storage, proofVerifier)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	apiConf := &api.APIConfig{
		Host:            cfg.API.Host,
		Port:            cfg.API.Port,
		Ledger:          services.Ledger,
		VerificationKey: vk,
		Identity:        ids,
	}

	// Proof assembly
	p, err := newProver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s prover: %w", cfg.Prover.Backend, err)
	}
	if p != nil {
		apiConf.Assembler = prover.NewAssembler(p, ids)
		log.Infow("proof assembly enabled", "backend", cfg.Prover.Backend)
	}

	// Voter roster
	if cfg.Roster.MongoURL != "" {
		mongoRoster, err := roster.NewMongo(ctx, cfg.Roster.MongoURL, cfg.Roster.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to the voter roster: %w", err)
		}
		services.Roster = mongoRoster
		apiConf.Roster = mongoRoster
	}

	// On-chain mirror
	if cfg.Web3.RPC != "" {
		var signer *ethereum.Signer
		if cfg.Web3.PrivKey != "" {
			if signer, err = ethereum.NewSignerFromHex(cfg.Web3.PrivKey); err != nil {
				return nil, fmt.Errorf("invalid web3 private key: %w", err)
			}
		}
		services.Contract, err = web3.Dial(ctx, cfg.Web3.RPC, common.HexToAddress(cfg.Web3.Contract), signer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize web3 contract: %w", err)
		}
		apiConf.Contract = services.Contract
	}

	// Administrator
	if cfg.Admin.Address != "" {
		apiConf.Admin = auth.NewVerifier(common.HexToAddress(cfg.Admin.Address), cfg.Admin.TokenTTL)
		log.Infow("admin endpoints enabled", "admin", cfg.Admin.Address)
	}

	// Start API service
	log.Infow("starting API service", "host", cfg.API.Host, "port", cfg.API.Port)
	services.API = service.NewAPI(apiConf, cfg.Log.DisableAPI)
	if err := services.API.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start API service: %w", err)
	}

	log.Info("zkvote-node is running, ready to accept votes!")
	return services, nil
}

// shutdownServices gracefully shuts down all services
func shutdownServices(services *Services) {
	if services == nil {
		return
	}

	// Stop services in reverse order of startup
	if services.API != nil {
		services.API.Stop()
	}
	if services.Roster != nil {
		if err := services.Roster.Close(context.Background()); err != nil {
			log.Warnw("error closing voter roster", "error", err)
		}
	}
	if services.DB != nil {
		if err := services.DB.Close(); err != nil {
			log.Warnw("error closing database", "error", err)
		}
	}
}
