package session

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrSealedStore is returned when a sealed file cannot be opened with the
// configured passphrase, or a sealed file is read without one.
var ErrSealedStore = errors.New("token store is sealed")

var sealedMagic = []byte("CTS1")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileStorage keeps values as a JSON object in a single file. With a
// passphrase the file is sealed with secretbox under an scrypt-derived key.
type FileStorage struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

func NewFileStorage(path, passphrase string) *FileStorage {
	fs := &FileStorage{path: path}
	if passphrase != "" {
		fs.passphrase = []byte(passphrase)
	}
	return fs
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.store(values)
}

func (s *FileStorage) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("[FileStorage Delete] remove %s: %w", s.path, err)
		}
		return nil
	}
	return s.store(values)
}

func (s *FileStorage) load() (map[string]string, error) {
	values := make(map[string]string)

	blob, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStorage load] read %s: %w", s.path, err)
	}

	if bytes.HasPrefix(blob, sealedMagic) {
		if s.passphrase == nil {
			return nil, ErrSealedStore
		}
		if blob, err = open(s.passphrase, blob[len(sealedMagic):]); err != nil {
			return nil, err
		}
	}

	if len(bytes.TrimSpace(blob)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(blob, &values); err != nil {
		return nil, fmt.Errorf("[FileStorage load] decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStorage) store(values map[string]string) error {
	blob, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if s.passphrase != nil {
		sealed, err := seal(s.passphrase, blob)
		if err != nil {
			return err
		}
		blob = append(append([]byte{}, sealedMagic...), sealed...)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileStorage store] mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileStorage store] temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStorage store] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("[FileStorage store] rename: %w", err)
	}
	return nil
}

func deriveKey(passphrase, salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

// seal returns salt || nonce || box.
func seal(passphrase, plaintext []byte) ([]byte, error) {
	header := make([]byte, saltSize+nonceSize)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, header[:saltSize])
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], header[saltSize:])
	return secretbox.Seal(header, plaintext, &nonce, key), nil
}

func open(passphrase, blob []byte) ([]byte, error) {
	if len(blob) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: truncated", ErrSealedStore)
	}
	key, err := deriveKey(passphrase, blob[:saltSize])
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, blob[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupt file", ErrSealedStore)
	}
	return plain, nil
}
