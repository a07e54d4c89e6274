package credstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	keySize  = 32
)

// ErrDecrypt — файл повреждён или зашифрован другим секретом.
var ErrDecrypt = errors.New("credstore: cannot decrypt store file")

// sealedFile — формат файла на диске.
type sealedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// FileStore хранит все ключи в одном файле, запечатанном AES-256-GCM.
// Ключ шифрования выводится Argon2id из секрета и соли файла.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte

	salt []byte
	key  []byte
}

// NewFileStore создаёт хранилище. Файл может не существовать: тогда хранилище пустое.
func NewFileStore(path, secret string) (*FileStore, error) {
	const op = "credstore.NewFileStore"
	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}
	if secret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}
	return &FileStore{path: path, secret: []byte(secret)}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "credstore.FileStore.Get"
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	const op = "credstore.FileStore.Set"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	values[key] = value
	if err := s.save(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	const op = "credstore.FileStore.Delete"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if err := s.save(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var f sealedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(f.Salt) != saltSize {
		return nil, fmt.Errorf("%w: bad salt", ErrDecrypt)
	}

	gcm, err := s.cipher(f.Salt)
	if err != nil {
		return nil, err
	}
	if len(f.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce", ErrDecrypt)
	}
	plaintext, err := gcm.Open(nil, f.Nonce, f.Data, nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	if s.salt == nil {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
		s.salt = salt
		s.key = nil
	}
	gcm, err := s.cipher(s.salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(values)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	body, err := json.Marshal(sealedFile{
		Salt:  s.salt,
		Nonce: nonce,
		Data:  gcm.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return err
	}
	return writeAtomic(s.path, body)
}

// cipher возвращает AEAD для соли файла; ключ кэшируется, пока соль не меняется.
func (s *FileStore) cipher(salt []byte) (cipher.AEAD, error) {
	if s.key == nil || string(s.salt) != string(salt) {
		s.salt = append([]byte(nil), salt...)
		s.key = argon2.IDKey(s.secret, s.salt, 1, 64*1024, 4, keySize)
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".credstore-*")
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
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
