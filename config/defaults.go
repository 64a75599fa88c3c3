package config

import (
	"slices"
	"time"
)

const (
	DefaultAPIHost          = "0.0.0.0"
	DefaultAPIPort          = 9095
	DefaultLogLevel         = "info"
	DefaultLogOutput        = "stdout"
	DefaultDatadir          = ".zkvote" // prefixed with the user home directory
	DefaultDBType           = "pebble"
	DefaultProverBackend    = ProverGnark
	DefaultArtifactsTimeout = 20 * time.Minute
)

// Prover backends
const (
	ProverNone       = "none"
	ProverGnark      = "gnark"
	ProverRapidsnark = "rapidsnark"
	ProverRemote     = "remote"
)

// ProverBackends lists the accepted values of the prover backend option.
var ProverBackends = []string{ProverNone, ProverGnark, ProverRapidsnark, ProverRemote}

// ValidProverBackend reports whether name is a known prover backend.
func ValidProverBackend(name string) bool {
	return slices.Contains(ProverBackends, name)
}
