// Package config provides the compiled-in defaults of the node, including the
// location of the published voter circuit artifacts.
package config

import "fmt"

const (
	// DefaultArtifactsBaseURL is the base URL for circuit artifacts storage
	DefaultArtifactsBaseURL = "https://circuits.ams3.cdn.digitaloceanspaces.com"
	// DefaultArtifactsRelease is the release version for circuit artifacts
	DefaultArtifactsRelease = "dev"
	// VoterCircuitName is the directory of the voter circuit within a release
	VoterCircuitName = "zkvote-voter"
)

var (
	// VoterArtifactsURL is the base URL of the voter circuit artifacts and
	// their manifest.
	VoterArtifactsURL = fmt.Sprintf("%s/%s/%s", DefaultArtifactsBaseURL, DefaultArtifactsRelease, VoterCircuitName)
	// VoterManifestHash is the SHA256 hash of the published manifest.json.
	// Empty accepts any manifest, which is only fine for dev releases.
	VoterManifestHash = ""
)
