package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/api"
	"github.com/vocdoni/zkvote-node/circuits"
	"github.com/vocdoni/zkvote-node/circuits/voter/votertest"
	"github.com/vocdoni/zkvote-node/db/metadb"
	"github.com/vocdoni/zkvote-node/ledger"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/verifier"
)

// artifactServer serves a manifest and its files.
func artifactServer(c *qt.C, files map[string][]byte) (*httptest.Server, types.HexBytes) {
	manifest := &circuits.Manifest{Circuit: "voter", Curve: "bn254", Artifacts: map[string]types.HexBytes{}}
	for name, content := range files {
		hash, err := types.HexStringToHexBytes(circuits.HashBytesSHA256(content))
		c.Assert(err, qt.IsNil)
		manifest.Artifacts[name] = hash
	}
	manifestJSON, err := json.Marshal(manifest)
	c.Assert(err, qt.IsNil)
	manifestHash, err := types.HexStringToHexBytes(circuits.HashBytesSHA256(manifestJSON))
	c.Assert(err, qt.IsNil)

	mux := http.NewServeMux()
	mux.HandleFunc("/"+circuits.ManifestFile, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(manifestJSON)
	})
	for name, content := range files {
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(content)
		})
	}
	srv := httptest.NewServer(mux)
	c.Cleanup(srv.Close)
	return srv, manifestHash
}

func TestDownloadArtifacts(t *testing.T) {
	c := qt.New(t)
	files := map[string][]byte{
		"voter.ccs": []byte("constraint system"),
		"voter.pk":  []byte("proving key"),
	}
	srv, manifestHash := artifactServer(c, files)
	dir := filepath.Join(c.TempDir(), "artifacts")

	manifest, err := DownloadArtifacts(time.Minute, dir, srv.URL, manifestHash)
	c.Assert(err, qt.IsNil)
	c.Assert(manifest.Names(), qt.DeepEquals, []string{"voter.ccs", "voter.pk"})
	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dir, name))
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, content)
	}

	// the local copy is enough afterwards
	manifest, err = DownloadArtifacts(time.Minute, dir, "", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(manifest.Circuit, qt.Equals, "voter")

	// a manifest not matching the pinned hash is refused
	_, err = DownloadArtifacts(time.Minute, c.TempDir(), srv.URL, types.HexBytes{1, 2, 3})
	c.Assert(err, qt.ErrorMatches, ".*hash mismatch.*")

	// and so is a corrupted local artifact
	c.Assert(os.WriteFile(filepath.Join(dir, "voter.pk"), []byte("tampered"), 0o644), qt.IsNil)
	_, err = DownloadArtifacts(time.Minute, dir, "", nil)
	c.Assert(err, qt.IsNotNil)
}

func TestAPIService(t *testing.T) {
	c := qt.New(t)
	v, err := verifier.New(votertest.VerificationKey(c))
	c.Assert(err, qt.IsNil)
	l, err := ledger.New(storage.New(metadb.NewTest(c)), v)
	c.Assert(err, qt.IsNil)

	svc := NewAPI(&api.APIConfig{
		Host:            "127.0.0.1",
		Port:            0,
		Ledger:          l,
		VerificationKey: votertest.VerificationKey(c),
	}, true)
	c.Assert(svc.Start(c.Context()), qt.IsNil)
	c.Assert(svc.Start(c.Context()), qt.IsNotNil)

	resp, err := http.Get(fmt.Sprintf("http://%s%s", svc.API.Addr(), api.PingEndpoint))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Body.Close(), qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

	svc.Stop()
	_, err = http.Get(fmt.Sprintf("http://%s%s", svc.API.Addr(), api.PingEndpoint))
	c.Assert(err, qt.IsNotNil)
}
