package config

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// minKeyLength is the exclusive lower bound on the length of an accepted key line.
const minKeyLength = 32

// bcryptPrefixes identify key lines that hold a bcrypt hash instead of a key.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// KeysFileError reports that the keys file could not be read.
type KeysFileError struct {
	Path  string
	Cause error
}

func (e *KeysFileError) Error() string {
	return fmt.Sprintf("failed to read API keys file %s: %v", e.Path, e.Cause)
}

func (e *KeysFileError) Unwrap() error {
	return e.Cause
}

// NoKeysError reports that the keys file held no usable key.
type NoKeysError struct {
	Path string
}

func (e *NoKeysError) Error() string {
	return fmt.Sprintf("no API keys present in %s", e.Path)
}

// KeyStore is the set of API keys callers may present. It is safe for
// concurrent use.
type KeyStore struct {
	mu     sync.RWMutex
	plain  [][]byte
	hashed [][]byte
}

// NewKeyStore creates an empty KeyStore.
func NewKeyStore() *KeyStore {
	return &KeyStore{}
}

// LoadKeyStore reads one key per line from path. Lines of 32 characters or
// fewer are ignored. Lines starting with a bcrypt prefix are stored as hashes.
func LoadKeyStore(path string) (*KeyStore, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, &KeysFileError{Path: path, Cause: err}
	}

	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if len(line) > minKeyLength {
			keys = append(keys, line)
		}
	}

	if len(keys) == 0 {
		return nil, &NoKeysError{Path: path}
	}

	store := NewKeyStore()
	store.Fill(keys)
	return store, nil
}

// Fill adds keys to the store.
func (s *KeyStore) Fill(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if isBcryptHash(key) {
			s.hashed = append(s.hashed, []byte(key))
			continue
		}
		s.plain = append(s.plain, []byte(key))
	}
}

// Len returns the number of keys in the store.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plain) + len(s.hashed)
}

// Validate reports whether key is in the store. Plain keys are compared in
// constant time against every entry.
func (s *KeyStore) Validate(key string) bool {
	if key == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate := []byte(key)
	valid := 0
	for _, k := range s.plain {
		valid |= subtle.ConstantTimeCompare(candidate, k)
	}
	if valid == 1 {
		return true
	}

	for _, hash := range s.hashed {
		if bcrypt.CompareHashAndPassword(hash, candidate) == nil {
			return true
		}
	}
	return false
}

func isBcryptHash(line string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// readLines returns the lines of the file at path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
