package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vocdoni/zkvote-node/circuits"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"golang.org/x/sync/errgroup"
)

// DownloadArtifacts makes sure the circuit artifacts listed in the
// manifest are available in dataDir, downloading the missing ones
// concurrently. With an empty baseURL the local manifest is used and
// nothing is downloaded. The manifest is checked against manifestHash when
// it is not empty.
func DownloadArtifacts(timeout time.Duration, dataDir, baseURL string, manifestHash types.HexBytes) (*circuits.Manifest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		manifest *circuits.Manifest
		err      error
	)
	if baseURL == "" {
		manifest, err = circuits.ReadManifest(filepath.Join(dataDir, circuits.ManifestFile))
	} else {
		manifest, err = circuits.FetchManifest(ctx, baseURL, manifestHash)
	}
	if err != nil {
		return nil, fmt.Errorf("circuit manifest: %w", err)
	}
	list, err := manifest.ArtifactList(baseURL, dataDir)
	if err != nil {
		return nil, err
	}

	log.Infow("preparing zkSNARK circuit artifacts",
		"circuit", manifest.Circuit,
		"artifacts", len(list),
		"timeout", timeout,
		"dataDir", dataDir)
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range list {
		g.Go(func() error {
			return a.Download(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if baseURL != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, err
		}
		if err := circuits.WriteManifest(dataDir, manifest); err != nil {
			return nil, err
		}
	}
	return manifest, nil
}
