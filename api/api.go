// Package api exposes the node over HTTP: identity commitments, election
// and registry administration, proof assembly, vote submission and tallies.
// Administrative endpoints require an admin token, see package auth.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/zkvote-node/auth"
	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/ledger"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/roster"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
	"github.com/vocdoni/zkvote-node/web3"
)

const (
	maxRequestBodyLog = 512 // Maximum length of request body to log
	shutdownTimeout   = 10 * time.Second
	onchainTimeout    = 2 * time.Minute
)

// APIConfig type represents the configuration for the API HTTP server.
// Ledger and VerificationKey are required, everything else is optional and
// disables the endpoints or checks that depend on it.
type APIConfig struct {
	Host string
	Port int

	Ledger          *ledger.Ledger
	VerificationKey *circomgnark.CircomVerificationKey
	Identity        *identity.Generator
	Assembler       *prover.Assembler // proof assembly endpoint
	Roster          roster.Roster     // pre-flight voter lookups
	Admin           *auth.Verifier    // admin endpoints
	Contract        *web3.Contract    // on-chain mirror of registrations and votes
}

// API type represents the API HTTP server.
type API struct {
	router    *chi.Mux
	ledger    *ledger.Ledger
	vk        *circomgnark.CircomVerificationKey
	ids       *identity.Generator
	assembler *prover.Assembler
	roster    roster.Roster
	admin     *auth.Verifier
	contract  *web3.Contract
	txs       *web3.TxManager

	addr   string
	mu     sync.Mutex
	server *http.Server
}

// New creates a new API instance with the given configuration and
// initializes its router. The server is started with Start.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	if conf.VerificationKey == nil {
		return nil, fmt.Errorf("missing verification key")
	}
	a := &API{
		ledger:    conf.Ledger,
		vk:        conf.VerificationKey,
		ids:       conf.Identity,
		assembler: conf.Assembler,
		roster:    conf.Roster,
		admin:     conf.Admin,
		contract:  conf.Contract,
		addr:      net.JoinHostPort(conf.Host, fmt.Sprint(conf.Port)),
	}
	if a.ids == nil {
		a.ids = identity.New(nil)
	}
	if a.admin == nil {
		log.Warn("no admin address configured, admin endpoints are disabled")
	}
	if a.contract != nil {
		a.txs = web3.NewTxManager(a.contract, onchainTimeout, logMirrorResult)
		a.txs.Start()
	}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Start serves the API in the background until Stop is called.
func (a *API) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return fmt.Errorf("API server already running")
	}
	listener, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.addr, err)
	}
	a.addr = listener.Addr().String()
	a.server = &http.Server{Handler: a.router, ReadHeaderTimeout: 10 * time.Second}
	go func(srv *http.Server) {
		log.Infow("starting API server", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server failed")
		}
	}(a.server)
	return nil
}

// Addr returns the address the server listens on, with the actual port
// once started.
func (a *API) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Stop shuts the server down and waits for the queued on-chain
// transactions to be mined.
func (a *API) Stop() error {
	a.mu.Lock()
	srv := a.server
	a.server = nil
	a.mu.Unlock()
	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	if a.txs != nil {
		a.txs.Stop()
	}
	return err
}

// registerHandlers registers all the HTTP handlers for the API endpoints.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", InfoEndpoint, "method", "GET")
	a.router.Get(InfoEndpoint, a.info)
	log.Infow("register handler", "endpoint", CommitmentsEndpoint, "method", "POST")
	a.router.Post(CommitmentsEndpoint, a.newCommitment)

	// elections and candidates
	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "GET")
	a.router.Get(ElectionsEndpoint, a.elections)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "GET")
	a.router.Get(ElectionEndpoint, a.election)
	log.Infow("register handler", "endpoint", CandidatesEndpoint, "method", "GET")
	a.router.Get(CandidatesEndpoint, a.candidates)
	log.Infow("register handler", "endpoint", CandidateEndpoint, "method", "GET")
	a.router.Get(CandidateEndpoint, a.candidate)
	log.Infow("register handler", "endpoint", TallyEndpoint, "method", "GET")
	a.router.Get(TallyEndpoint, a.tally)

	// proofs and votes
	log.Infow("register handler", "endpoint", ProofsEndpoint, "method", "POST")
	a.router.Post(ProofsEndpoint, a.newProof)
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.newVote)
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "GET")
	a.router.Get(VotesEndpoint, a.receipts)
	log.Infow("register handler", "endpoint", ReceiptEndpoint, "method", "GET")
	a.router.Get(ReceiptEndpoint, a.receipt)

	// administration
	a.router.Group(func(r chi.Router) {
		r.Use(a.adminMiddleware)
		log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "POST", "admin", true)
		r.Post(ElectionsEndpoint, a.newElection)
		log.Infow("register handler", "endpoint", CandidatesEndpoint, "method", "POST", "admin", true)
		r.Post(CandidatesEndpoint, a.newCandidate)
		log.Infow("register handler", "endpoint", VotersEndpoint, "method", "POST", "admin", true)
		r.Post(VotersEndpoint, a.registerVoter)
		log.Infow("register handler", "endpoint", VoterEndpoint, "method", "GET", "admin", true)
		r.Get(VoterEndpoint, a.voter)
		log.Infow("register handler", "endpoint", VoterMarkEndpoint, "method", "POST", "admin", true)
		r.Post(VoterMarkEndpoint, a.markVoted)
	})
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(loggingMiddleware(maxRequestBodyLog))
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))
	a.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		ErrResourceNotFound.Write(w)
	})

	a.registerHandlers()
}
