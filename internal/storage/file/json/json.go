package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/drakos74/free-ml/internal/storage"
)

// Save saves the given json struct into the given path with the provided filename.
func Save(filePath string, fileName string, value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode value for '%s': %w", fileName, err)
	}
	return write(filePath, fileName, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {
	p := filepath.Join(filePath, fileName)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not read file '%s': %w", p, storage.NotFoundErr)
	}
	if err != nil {
		return fmt.Errorf("could not read file '%s': %w", p, err)
	}
	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal '%s': %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}

func mkdir(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if err := os.MkdirAll(filePath, os.ModePerm); err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}
	return nil
}

// write creates the file next to its destination and renames it in place,
// readers never see a partial file.
func write(filePath, fileName string, content func(w io.Writer) error) error {
	if err := mkdir(filePath); err != nil {
		return err
	}
	f, err := os.CreateTemp(filePath, "."+fileName+".*")
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", fileName, err)
	}
	tmp := f.Name()
	if err := content(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("could not write file '%s': %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not close file '%s': %w", fileName, err)
	}
	if err := os.Rename(tmp, filepath.Join(filePath, fileName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace file '%s': %w", fileName, err)
	}
	return nil
}
