package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/world"
)

var ErrInvalidID = errors.New("storage: invalid world id")

// WorldStore keeps saved worlds in the scene format, one file per id.
type WorldStore struct {
	dir string
}

func NewWorldStore(dir string) *WorldStore {
	return &WorldStore{dir: dir}
}

func (ws *WorldStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(ws.dir, id+".json"), nil
}

// Save writes w under a new id and returns it.
func (ws *WorldStore) Save(w *world.World) (string, error) {
	id := strconv.FormatInt(time.Now().UnixNano(), 36)
	return id, ws.Put(id, w)
}

// Put writes w under id, replacing any world already stored there.
func (ws *WorldStore) Put(id string, w *world.World) error {
	path, err := ws.path(id)
	if err != nil {
		return err
	}
	data, err := scene.Serialize(w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ws.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load builds a fresh world from the stored document.
func (ws *WorldStore) Load(id string, gravity geom.Vec2, opts ...world.Option) (*world.World, error) {
	path, err := ws.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return scene.Deserialize(data, gravity, opts...)
}

// Raw returns the stored document bytes.
func (ws *WorldStore) Raw(id string) ([]byte, error) {
	path, err := ws.path(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// List returns the stored ids in sorted order.
func (ws *WorldStore) List() ([]string, error) {
	entries, err := os.ReadDir(ws.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok && !e.IsDir() {
			ids = append(ids, name)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (ws *WorldStore) Delete(id string) error {
	path, err := ws.path(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
