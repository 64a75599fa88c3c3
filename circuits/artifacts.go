// Package circuits holds the helpers shared by the circuit packages: storing
// and loading gnark keys, and distributing circuit artifacts with integrity
// checks.
package circuits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

// ManifestFile is the name of the manifest published with the artifacts.
const ManifestFile = "manifest.json"

// Manifest lists the artifacts of a circuit setup and their SHA256 hashes.
// The setup tool writes it next to the artifacts.
type Manifest struct {
	Circuit   string                    `json:"circuit"`
	Curve     string                    `json:"curve"`
	Artifacts map[string]types.HexBytes `json:"artifacts"`
}

// WriteManifest writes m to dir/manifest.json.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// ReadManifest decodes a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}

// Names returns the artifact names of the manifest in a stable order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Artifacts))
	for name := range m.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Artifact is a circuit file identified by its SHA256 hash. It may be
// fetched from RemoteURL into LocalPath.
type Artifact struct {
	Name      string
	RemoteURL string
	Hash      types.HexBytes
	LocalPath string
}

// ArtifactList returns the artifacts listed in the manifest, located under dir
// and, if baseURL is not empty, downloadable from baseURL/<name>.
func (m *Manifest) ArtifactList(baseURL, dir string) ([]*Artifact, error) {
	list := make([]*Artifact, 0, len(m.Artifacts))
	for _, name := range m.Names() {
		a := &Artifact{
			Name:      name,
			Hash:      m.Artifacts[name],
			LocalPath: filepath.Join(dir, name),
		}
		if baseURL != "" {
			u, err := url.JoinPath(baseURL, name)
			if err != nil {
				return nil, fmt.Errorf("artifact %s url: %w", name, err)
			}
			a.RemoteURL = u
		}
		list = append(list, a)
	}
	return list, nil
}

// Verify checks the local copy of the artifact against its hash.
func (a *Artifact) Verify() error {
	sum, err := HashFileSHA256(a.LocalPath)
	if err != nil {
		return err
	}
	if sum != a.Hash.Hex() {
		return fmt.Errorf("artifact %s hash mismatch: got %s, expected %s", a.Name, sum, a.Hash.Hex())
	}
	return nil
}

// Download fetches the artifact unless a valid local copy exists. The
// content is written to LocalPath only after its hash has been checked.
func (a *Artifact) Download(ctx context.Context) error {
	if err := a.Verify(); err == nil {
		log.Debugw("artifact already available", "name", a.Name, "path", a.LocalPath)
		return nil
	}
	if a.RemoteURL == "" {
		return fmt.Errorf("artifact %s not found locally and has no remote url", a.Name)
	}
	content, err := fetch(ctx, a.RemoteURL)
	if err != nil {
		return fmt.Errorf("download artifact %s: %w", a.Name, err)
	}
	if sum := HashBytesSHA256(content); sum != a.Hash.Hex() {
		return fmt.Errorf("downloaded artifact %s hash mismatch: got %s, expected %s", a.Name, sum, a.Hash.Hex())
	}
	if err := os.MkdirAll(filepath.Dir(a.LocalPath), 0o755); err != nil {
		return err
	}
	tmp := a.LocalPath + ".part"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, a.LocalPath); err != nil {
		return err
	}
	log.Infow("artifact downloaded", "name", a.Name, "size", len(content), "url", a.RemoteURL)
	return nil
}

// FetchManifest downloads baseURL/manifest.json. If expectedHash is not
// empty the manifest content must match it.
func FetchManifest(ctx context.Context, baseURL string, expectedHash types.HexBytes) (*Manifest, error) {
	u, err := url.JoinPath(baseURL, ManifestFile)
	if err != nil {
		return nil, err
	}
	content, err := fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("download manifest: %w", err)
	}
	if len(expectedHash) > 0 && HashBytesSHA256(content) != expectedHash.Hex() {
		return nil, fmt.Errorf("manifest hash mismatch")
	}
	m := &Manifest{}
	if err := json.NewDecoder(bytes.NewReader(content)).Decode(m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("error closing response body", "url", u, "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
