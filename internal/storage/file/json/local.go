package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/drakos74/free-ml/internal/storage"
)

// LocalStorage is an in-memory workspace.
type LocalStorage struct {
	files map[storage.Key]file
	mutex *sync.RWMutex
}

type file struct {
	content  []byte
	modified time.Time
}

// NewLocalStorage creates an empty in-memory workspace.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		files: make(map[storage.Key]file),
		mutex: new(sync.RWMutex),
	}
}

func (l *LocalStorage) put(k storage.Key, b []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.files[k] = file{
		content:  b,
		modified: time.Now(),
	}
}

func (l *LocalStorage) get(k storage.Key) (file, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	f, ok := l.files[k]
	if !ok {
		return file{}, fmt.Errorf("'%s': %w", k, storage.NotFoundErr)
	}
	return f, nil
}

// Store keeps the json encoding of the value.
func (l *LocalStorage) Store(k storage.Key, value interface{}) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("'%s': %w", k, err)
	}
	bb, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal value: %w", err)
	}
	l.put(k, bb)
	return nil
}

// Load decodes the value stored under the key.
func (l *LocalStorage) Load(k storage.Key, value interface{}) error {
	f, err := l.get(k)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(f.content, value); err != nil {
		return fmt.Errorf("could not unmarshal value: %s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}

type buffer struct {
	bytes.Buffer
	commit func(b []byte)
}

func (b *buffer) Close() error {
	if b.commit != nil {
		b.commit(b.Bytes())
		b.commit = nil
	}
	return nil
}

// Create returns a writer whose content is stored on Close.
func (l *LocalStorage) Create(k storage.Key) (io.WriteCloser, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("'%s': %w", k, err)
	}
	return &buffer{
		commit: func(b []byte) {
			l.put(k, append([]byte(nil), b...))
		},
	}, nil
}

// Open returns a reader over the stored content.
func (l *LocalStorage) Open(k storage.Key) (io.ReadCloser, error) {
	f, err := l.get(k)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

// Stat describes the stored content.
func (l *LocalStorage) Stat(k storage.Key) (storage.Info, error) {
	f, err := l.get(k)
	if err != nil {
		return storage.Info{}, err
	}
	return storage.Info{
		Size:     int64(len(f.content)),
		Modified: f.modified,
	}, nil
}

// Remove drops every key of the session.
func (l *LocalStorage) Remove(session string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for k := range l.files {
		if k.Session == session {
			delete(l.files, k)
		}
	}
	return nil
}
