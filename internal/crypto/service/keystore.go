package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// keyFile is the on-disk representation of one (purpose, version) key.
//
// The key field is base64 of the raw 32 bytes, or of the KMS-wrapped bytes
// when a keeper protects the directory. Files are written once; rotation adds
// a new file for the new version and rewrites the old file with its status
// flipped to retired. The running process never mutates key files — rotations
// are picked up on next start.
type keyFile struct {
	Purpose   string    `json:"purpose"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// keyFileName returns the canonical file name for a (purpose, version) pair.
func keyFileName(purpose cryptoDomain.Purpose, version string) string {
	return fmt.Sprintf("%s-%s.json", purpose, version)
}

// LoadKeyring reads every key file in dir and assembles an immutable keyring.
//
// When keeper is non-nil the key bytes in each file are treated as
// KMS-wrapped and unwrapped before use. Temporary decoded buffers are zeroed;
// the raw keys live only inside the returned keyring, which the caller must
// Close on shutdown.
//
// An empty or missing directory yields an empty keyring: every purpose then
// fails closed with ErrKeyUnavailable at use time.
func LoadKeyring(
	ctx context.Context,
	dir string,
	keeper cryptoDomain.KMSKeeper,
) (*cryptoDomain.Keyring, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return cryptoDomain.NewKeyring(nil)
		}
		return nil, fmt.Errorf("failed to read keys directory %s: %w", dir, err)
	}

	var keys []*cryptoDomain.KeyMaterial

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		material, err := loadKeyFile(ctx, filepath.Join(dir, entry.Name()), keeper)
		if err != nil {
			// A malformed key file is a fail-closed condition: refusing to
			// start beats silently dropping a key version readers depend on.
			return nil, err
		}
		keys = append(keys, material)
	}

	return cryptoDomain.NewKeyring(keys)
}

// loadKeyFile parses and (if needed) unwraps a single key file.
func loadKeyFile(
	ctx context.Context,
	path string,
	keeper cryptoDomain.KMSKeeper,
) (*cryptoDomain.KeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}

	purpose, err := cryptoDomain.ParsePurpose(kf.Purpose)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}

	raw, err := base64.StdEncoding.DecodeString(kf.Key)
	if err != nil {
		return nil, fmt.Errorf("key file %s: invalid base64 key: %w", path, err)
	}

	if keeper != nil {
		unwrapped, err := keeper.Decrypt(ctx, raw)
		cryptoDomain.Zero(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap key file %s: %w", path, err)
		}
		raw = unwrapped
	}

	material := &cryptoDomain.KeyMaterial{
		Purpose:   purpose,
		Version:   kf.Version,
		Status:    cryptoDomain.KeyStatus(kf.Status),
		Key:       raw,
		CreatedAt: kf.CreatedAt.UTC(),
	}

	if err := material.Validate(); err != nil {
		cryptoDomain.Zero(raw)
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}

	return material, nil
}

// GenerateKeyFile creates a new current key file for a purpose.
//
// Returns an error if the purpose already has a current key on disk; use
// RotateKeyFiles to supersede an existing current version. The generated key
// bytes are wrapped with the keeper when one is configured and zeroed before
// returning.
func GenerateKeyFile(
	ctx context.Context,
	dir string,
	purpose cryptoDomain.Purpose,
	version string,
	keeper cryptoDomain.KMSKeeper,
) error {
	if version == "" {
		version = newKeyVersion()
	}

	current, err := findCurrentKeyFile(dir, purpose)
	if err != nil {
		return err
	}
	if current != "" {
		return fmt.Errorf("purpose %s already has a current key (%s); use rotate-key", purpose, current)
	}

	return writeKeyFile(ctx, dir, purpose, version, keeper)
}

// RotateKeyFiles supersedes the current key for a purpose: the existing
// current file (if any) is rewritten with status retired, and a fresh key is
// written as the new current version. Running processes pick the change up on
// next start; until then they keep writing under the old version, which the
// new process can still read as a retired candidate.
func RotateKeyFiles(
	ctx context.Context,
	dir string,
	purpose cryptoDomain.Purpose,
	version string,
	keeper cryptoDomain.KMSKeeper,
) error {
	if version == "" {
		version = newKeyVersion()
	}

	currentPath, err := findCurrentKeyFile(dir, purpose)
	if err != nil {
		return err
	}

	if currentPath != "" {
		if err := markKeyFileRetired(currentPath); err != nil {
			return err
		}
	}

	return writeKeyFile(ctx, dir, purpose, version, keeper)
}

// writeKeyFile generates 32 random bytes and persists them as the current key.
func writeKeyFile(
	ctx context.Context,
	dir string,
	purpose cryptoDomain.Purpose,
	version string,
	keeper cryptoDomain.KMSKeeper,
) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create keys directory %s: %w", dir, err)
	}

	raw := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate key material: %w", err)
	}
	defer cryptoDomain.Zero(raw)

	stored := raw
	if keeper != nil {
		wrapped, err := keeper.Encrypt(ctx, raw)
		if err != nil {
			return fmt.Errorf("failed to wrap key material: %w", err)
		}
		stored = wrapped
	}

	kf := keyFile{
		Purpose:   purpose.String(),
		Version:   version,
		Status:    string(cryptoDomain.KeyStatusCurrent),
		Key:       base64.StdEncoding.EncodeToString(stored),
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode key file: %w", err)
	}

	path := filepath.Join(dir, keyFileName(purpose, version))
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file %s: %w", path, err)
	}

	return nil
}

// findCurrentKeyFile returns the path of the current key file for a purpose,
// or empty string if none exists.
func findCurrentKeyFile(dir string, purpose cryptoDomain.Purpose) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keys directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read key file %s: %w", path, err)
		}

		var kf keyFile
		if err := json.Unmarshal(data, &kf); err != nil {
			return "", fmt.Errorf("failed to parse key file %s: %w", path, err)
		}

		if kf.Purpose == purpose.String() && kf.Status == string(cryptoDomain.KeyStatusCurrent) {
			return path, nil
		}
	}

	return "", nil
}

// markKeyFileRetired rewrites a key file with its status flipped to retired.
// The key bytes themselves are copied through untouched (still wrapped if a
// keeper is in use).
func markKeyFileRetired(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return fmt.Errorf("failed to parse key file %s: %w", path, err)
	}

	kf.Status = string(cryptoDomain.KeyStatusRetired)

	updated, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode key file: %w", err)
	}

	if err := os.WriteFile(path, updated, 0o600); err != nil {
		return fmt.Errorf("failed to update key file %s: %w", path, err)
	}

	return nil
}

// newKeyVersion derives a timestamp-based version identifier.
// Lexical order matches creation order, which keeps rotation tooling simple.
func newKeyVersion() string {
	return "v" + time.Now().UTC().Format("20060102150405")
}
