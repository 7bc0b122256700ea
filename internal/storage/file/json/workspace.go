package json

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/drakos74/free-ml/internal/storage"
	"github.com/rs/zerolog/log"
)

// Workspace keeps the files of each session under <root>/<session>/.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at the given directory.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = storage.DefaultDir
	}
	if err := mkdir(root); err != nil {
		return nil, err
	}
	log.Info().Str("root", root).Msg("opened workspace")
	return &Workspace{root: root}, nil
}

// Root returns the root directory of the workspace.
func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) dir(session string) string {
	return filepath.Join(w.root, session)
}

// Path returns the location of the key on disk.
func (w *Workspace) Path(k storage.Key) string {
	return filepath.Join(w.dir(k.Session), k.Label)
}

// Store writes the value as json under the key.
func (w *Workspace) Store(k storage.Key, value interface{}) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("'%s': %w", k, err)
	}
	return Save(w.dir(k.Session), k.Label, value)
}

// Load reads the json value of the key.
func (w *Workspace) Load(k storage.Key, value interface{}) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("'%s': %w", k, err)
	}
	return Load(w.dir(k.Session), k.Label, value)
}

type pending struct {
	*os.File
	target string
	closed bool
}

// Close renames the temporary file onto its target.
func (p *pending) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.File.Close(); err != nil {
		os.Remove(p.File.Name())
		return fmt.Errorf("could not close file '%s': %w", p.target, err)
	}
	if err := os.Rename(p.File.Name(), p.target); err != nil {
		os.Remove(p.File.Name())
		return fmt.Errorf("could not replace file '%s': %w", p.target, err)
	}
	return nil
}

// Create returns a writer for the key, the file is replaced when the writer is closed.
func (w *Workspace) Create(k storage.Key) (io.WriteCloser, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("'%s': %w", k, err)
	}
	dir := w.dir(k.Session)
	if err := mkdir(dir); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "."+k.Label+".*")
	if err != nil {
		return nil, fmt.Errorf("could not create file for '%s': %w", k, err)
	}
	return &pending{
		File:   f,
		target: w.Path(k),
	}, nil
}

// Open returns a reader for the key.
func (w *Workspace) Open(k storage.Key) (io.ReadCloser, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("'%s': %w", k, err)
	}
	f, err := os.Open(w.Path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("'%s': %w", k, storage.NotFoundErr)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", k, err)
	}
	return f, nil
}

// Stat returns the size and modification time of the key.
func (w *Workspace) Stat(k storage.Key) (storage.Info, error) {
	if err := k.Validate(); err != nil {
		return storage.Info{}, fmt.Errorf("'%s': %w", k, err)
	}
	info, err := os.Stat(w.Path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Info{}, fmt.Errorf("'%s': %w", k, storage.NotFoundErr)
	}
	if err != nil {
		return storage.Info{}, fmt.Errorf("could not stat '%s': %w", k, err)
	}
	return storage.Info{
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}

// Remove deletes the directory of the session.
func (w *Workspace) Remove(session string) error {
	if err := storage.NewKey(session, storage.DataFile).Validate(); err != nil {
		return fmt.Errorf("'%s': %w", session, err)
	}
	if err := os.RemoveAll(w.dir(session)); err != nil {
		return fmt.Errorf("could not remove session '%s': %w", session, err)
	}
	return nil
}
