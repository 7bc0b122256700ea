package storage

import (
	"errors"
	"io"
	"path"
	"time"
)

const (
	// DefaultDir is the default root of the session workspaces.
	DefaultDir = "file-storage"

	// DataFile is the persisted dataset of a session.
	DataFile = "data.csv"
	// ModelFile is the persisted model artifact of a session.
	ModelFile = "best_model.fml.xz"
	// MetaFile describes the dataset and target that produced the model artifact.
	MetaFile = "best_model.meta.json"
	// StateFile keeps the last chosen target and task of a session.
	StateFile = "session.json"
)

var (
	// NotFoundErr is returned when the key does not exist.
	NotFoundErr = errors.New("not found")
	// CouldNotLoadErr is returned when the stored value cannot be decoded.
	CouldNotLoadErr = errors.New("could not load")
	// InvalidKeyErr is returned for keys that would escape the workspace.
	InvalidKeyErr = errors.New("invalid key")
)

// Key identifies a file within a session workspace.
type Key struct {
	Session string
	Label   string
}

// NewKey creates a new key for the given session.
func NewKey(session, label string) Key {
	return Key{
		Session: session,
		Label:   label,
	}
}

func (k Key) String() string {
	return path.Join(k.Session, k.Label)
}

// Validate checks that both parts of the key are plain names.
func (k Key) Validate() error {
	for _, s := range []string{k.Session, k.Label} {
		if s == "" || s == "." || s == ".." || path.Base(s) != s {
			return InvalidKeyErr
		}
	}
	return nil
}

// Info describes a stored file.
type Info struct {
	Size     int64
	Modified time.Time
}

// Persistence stores and loads json values.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}

// Workspace gives access to the files of every session.
type Workspace interface {
	Persistence
	// Create returns a writer for the key, the content replaces the old one on Close.
	Create(k Key) (io.WriteCloser, error)
	// Open returns a reader for the key, NotFoundErr if it does not exist.
	Open(k Key) (io.ReadCloser, error)
	Stat(k Key) (Info, error)
	// Remove deletes all files of the session.
	Remove(session string) error
}
