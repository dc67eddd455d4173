package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Almacen stores contract artifacts as files under a root directory.
// Paths handed out and accepted are relative to that root.
type Almacen struct {
	raiz string
}

// NewAlmacen creates the root directory if needed.
func NewAlmacen(raiz string) (*Almacen, error) {
	if err := os.MkdirAll(raiz, 0o755); err != nil {
		return nil, fmt.Errorf("almacen: create storage dir: %w", err)
	}
	return &Almacen{raiz: raiz}, nil
}

func (a *Almacen) Raiz() string { return a.raiz }

// Ruta returns the absolute path of a stored artifact.
func (a *Almacen) Ruta(rel string) string {
	return filepath.Join(a.raiz, filepath.Base(rel))
}

// Guardar writes data under nombre atomically (temp file + rename) and
// returns the relative path to persist.
func (a *Almacen) Guardar(nombre string, data []byte) (string, error) {
	nombre = filepath.Base(nombre)
	tmp, err := os.CreateTemp(a.raiz, ".tmp-"+nombre+"-*")
	if err != nil {
		return "", fmt.Errorf("almacen: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("almacen: write %s: %w", nombre, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("almacen: close %s: %w", nombre, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(a.raiz, nombre)); err != nil {
		return "", fmt.Errorf("almacen: rename %s: %w", nombre, err)
	}
	return nombre, nil
}

// Leer returns the artifact bytes; a missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (a *Almacen) Leer(rel string) ([]byte, error) {
	return os.ReadFile(a.Ruta(rel))
}

// Existe stats the artifact. Missing files report (false, 0, nil).
func (a *Almacen) Existe(rel string) (bool, int64, error) {
	if rel == "" {
		return false, 0, nil
	}
	info, err := os.Stat(a.Ruta(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return !info.IsDir(), info.Size(), nil
}

// Eliminar removes the artifact; removing a missing file is not an error.
func (a *Almacen) Eliminar(rel string) error {
	err := os.Remove(a.Ruta(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
