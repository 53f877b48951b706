// Package vault provides an encrypted-at-rest key/value store for service
// credentials. The entire store is a single fernet token on disk: every read
// decrypts the whole file and every write re-encrypts and rewrites it, which
// keeps the crypto layer free of partial-update states. The store is small
// (one bundle per platform) and writes are rare, so whole-file rewrites are
// acceptable.
package vault

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fernet/fernet-go"
)

// System manages encrypted credential bundles keyed by service name.
type System interface {
	// Put replaces the stored bundle for the service and rewrites the store.
	Put(service string, bundle map[string]string) error
	// Get returns the bundle for the service, or an empty map if the service
	// or the store itself is absent. Get never fails on "not found".
	Get(service string) (map[string]string, error)
	// Delete removes the service entry if present and rewrites the store.
	Delete(service string) error
	// LoadAll decrypts and returns the full store. A missing file yields an
	// empty map; a corrupt or undecryptable file degrades to an empty map
	// with an error-level log entry rather than failing the caller.
	LoadAll() map[string]map[string]string
}

type store struct {
	path   string
	key    *fernet.Key
	logger *slog.Logger

	// Serializes read-modify-write cycles so a write in progress is never
	// interleaved with another write or a read of a half-written file.
	mu sync.Mutex
}

// New creates a vault system from the given configuration. When no key is
// configured, a process-local key is generated and a warning is logged: the
// store then cannot be decrypted after a restart.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	log := logger.With("system", "vault")

	var key *fernet.Key
	if cfg.Key != "" {
		k, err := fernet.DecodeKey(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		key = k
	} else {
		key = new(fernet.Key)
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("generate vault key: %w", err)
		}
		log.Warn("no vault key configured, generated ephemeral key; stored credentials will not survive restart")
	}

	return &store{
		path:   cfg.Path,
		key:    key,
		logger: log,
	}, nil
}

func (s *store) Put(service string, bundle map[string]string) error {
	if service == "" {
		return ErrEmptyService
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.decryptAll()
	all[service] = bundle
	return s.write(all)
}

func (s *store) Get(service string) (map[string]string, error) {
	if service == "" {
		return nil, ErrEmptyService
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bundle, ok := s.decryptAll()[service]; ok {
		return bundle, nil
	}
	return map[string]string{}, nil
}

func (s *store) Delete(service string) error {
	if service == "" {
		return ErrEmptyService
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.decryptAll()
	if _, ok := all[service]; !ok {
		return nil
	}
	delete(all, service)
	return s.write(all)
}

func (s *store) LoadAll() map[string]map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decryptAll()
}

// decryptAll reads and decrypts the full store. Callers must hold mu.
func (s *store) decryptAll() map[string]map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("vault read failed", "path", s.path, "error", err)
		}
		return map[string]map[string]string{}
	}

	plain := fernet.VerifyAndDecrypt(data, 0, []*fernet.Key{s.key})
	if plain == nil {
		s.logger.Error("vault decrypt failed, treating store as empty", "path", s.path)
		return map[string]map[string]string{}
	}

	var all map[string]map[string]string
	if err := json.Unmarshal(plain, &all); err != nil {
		s.logger.Error("vault parse failed, treating store as empty", "error", err)
		return map[string]map[string]string{}
	}
	return all
}

// write encrypts and rewrites the full store. Callers must hold mu.
func (s *store) write(all map[string]map[string]string) error {
	plain, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	tok, err := fernet.EncryptAndSign(plain, s.key)
	if err != nil {
		return fmt.Errorf("encrypt vault: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create vault dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, tok, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}
