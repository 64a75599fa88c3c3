package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/vocdoni/zkvote-node/log"
)

// UpdateCircuitArtifactsConfig updates the hash variables in the
// circuit_artifacts.go file with the values from the provided hash list
func UpdateCircuitArtifactsConfig(hashList map[string]string, configPath string) error {
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for config: %w", err)
	}
	content, err := os.ReadFile(absConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	modifiedContent := string(content)
	for constName, newHash := range hashList {
		// the current value may be empty
		re := regexp.MustCompile(fmt.Sprintf(`(%s\s*=\s*")([a-f0-9]*)(")`, constName))
		matches := re.FindStringSubmatch(modifiedContent)
		if matches == nil {
			log.Warnw("pattern not found in config file", "constant", constName)
			continue
		}
		modifiedContent = re.ReplaceAllString(modifiedContent, "${1}"+newHash+"${3}")
		log.Infow("updated hash constant", "constant", constName, "old_hash", matches[2], "new_hash", newHash)
	}

	// Don't write the file if no changes were made
	if modifiedContent == string(content) {
		log.Infow("no changes needed for config file", "path", absConfigPath)
		return nil
	}
	if err := os.WriteFile(absConfigPath, []byte(modifiedContent), 0o644); err != nil {
		return fmt.Errorf("failed to write updated config file: %w", err)
	}
	log.Infow("circuit artifacts config updated successfully", "path", absConfigPath)
	return nil
}

// FindCircuitArtifactsFile attempts to find the circuit_artifacts.go file
// Returns the path if found, an error otherwise
func FindCircuitArtifactsFile() (string, error) {
	defaultPath := "config/circuit_artifacts.go"
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath, nil
	}

	var configPath string
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == "circuit_artifacts.go" {
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil // Continue searching
			}
			if bytes.Contains(content, []byte("VoterManifestHash")) {
				configPath = path
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error searching for circuit_artifacts.go: %w", err)
	}
	if configPath == "" {
		return "", fmt.Errorf("circuit_artifacts.go file not found")
	}
	return configPath, nil
}
