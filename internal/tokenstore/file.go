package tokenstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/civicspot/internal/domain"
)

const (
	lockRetryInterval  = 10 * time.Millisecond
	defaultLockTimeout = 5 * time.Second
	// A lock older than this was left by a process that died mid-write.
	lockStaleAfter = 30 * time.Second
)

var errLocked = errors.New("credential file is locked by another writer")

// FileStore keeps credentials in a JSON object keyed by origin. Writers in
// other processes (the shell and civicspotctl) are serialized through a
// lock file next to the credential file.
type FileStore struct {
	mu          sync.Mutex
	path        string
	origin      string
	lockTimeout time.Duration
}

// NewFileStore returns a store backed by the JSON file at path.
// The file is created on the first Save.
func NewFileStore(path string, origin domain.Origin) (*FileStore, error) {
	if path == "" {
		return nil, domain.WrapRequiredField("token store path")
	}
	return &FileStore{path: path, origin: origin.String(), lockTimeout: defaultLockTimeout}, nil
}

// Save stores token for the store's origin, keeping other origins intact.
func (s *FileStore) Save(token string) error {
	if token == "" {
		return domain.WrapRequiredField("token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return domain.WrapTokenStore("save", err)
	}
	defer unlock()

	entries, err := s.read()
	if err != nil {
		return domain.WrapTokenStore("save", err)
	}
	entries[s.origin] = token
	if err := s.write(entries); err != nil {
		return domain.WrapTokenStore("save", err)
	}
	return nil
}

// Load returns the stored token, or ok=false when none is stored.
func (s *FileStore) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", false, domain.WrapTokenStore("load", err)
	}
	token, ok := entries[s.origin]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Clear removes the token of the store's origin.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return domain.WrapTokenStore("clear", err)
	}
	defer unlock()

	entries, err := s.read()
	if err != nil {
		return domain.WrapTokenStore("clear", err)
	}
	if _, ok := entries[s.origin]; !ok {
		return nil
	}
	delete(entries, s.origin)
	if err := s.write(entries); err != nil {
		return domain.WrapTokenStore("clear", err)
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error {
	return nil
}

// lock takes the write lock shared by every process using the file.
// Readers do not lock: writes land by rename.
func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}

	name := s.path + ".lock"
	deadline := time.Now().Add(s.lockTimeout)
	for {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(name) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		if info, statErr := os.Stat(name); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			_ = os.Remove(name)
			continue
		}
		if time.Now().After(deadline) {
			return nil, errLocked
		}
		time.Sleep(lockRetryInterval)
	}
}

func (s *FileStore) read() (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *FileStore) write(entries map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
