package session

import (
	"fmt"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/storage"
)

// SaveDataset overwrites the dataset file of the session.
func SaveDataset(ws storage.Workspace, id string, f *frame.Frame) error {
	w, err := ws.Create(storage.NewKey(id, storage.DataFile))
	if err != nil {
		return err
	}
	if err := f.WriteCSV(w); err != nil {
		w.Close()
		return fmt.Errorf("could not write dataset: %w", err)
	}
	return w.Close()
}

// LoadDataset reads the dataset file of the session.
func LoadDataset(ws storage.Workspace, id string) (*frame.Frame, error) {
	r, err := ws.Open(storage.NewKey(id, storage.DataFile))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := frame.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("could not read dataset: %s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	return f, nil
}

// SaveModel overwrites the artifact of the session and its metadata.
func SaveModel(ws storage.Workspace, id string, a *automl.Artifact) error {
	w, err := ws.Create(storage.NewKey(id, storage.ModelFile))
	if err != nil {
		return err
	}
	if err := automl.Save(w, a); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return ws.Store(storage.NewKey(id, storage.MetaFile), a.Meta())
}

// LoadModel restores the model of the session from its artifact.
func LoadModel(ws storage.Workspace, id string) (*automl.Model, error) {
	r, err := ws.Open(storage.NewKey(id, storage.ModelFile))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	m, err := automl.Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	return m, nil
}
