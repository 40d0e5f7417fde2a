package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	worldFile    = "world.json"
)

var statesHeader = []string{"step", "time", "id", "x", "y", "rotation", "vx", "vy", "omega"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scene        string             `json:"scene"`
	Timestamp    time.Time          `json:"timestamp"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Iterations   int                `json:"iterations"`
	WarmStarting bool               `json:"warm_starting"`
	Gravity      [2]float64         `json:"gravity"`
	Steps        int                `json:"steps"`
	Bodies       int                `json:"bodies"`
	HasWorld     bool               `json:"has_world"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a run: its metadata, every recorded frame and, when the
// world holds only boxes, its final state in the scene format.
func (s *Store) Save(sceneName string, dt, duration float64, w *world.World, result *sim.Result) (string, error) {
	runDir, runID, err := s.newRunDir(sceneName)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scene:        sceneName,
		Timestamp:    time.Now(),
		Dt:           dt,
		Duration:     duration,
		Iterations:   w.Iterations(),
		WarmStarting: w.WarmStarting(),
		Gravity:      [2]float64{w.Gravity.X, w.Gravity.Y},
		Steps:        result.StepsTaken,
		Bodies:       w.Len(),
		Metrics:      result.Metrics,
	}

	worldPath := filepath.Join(runDir, worldFile)
	switch err := writeWorld(worldPath, w); {
	case err == nil:
		meta.HasWorld = true
	case errors.Is(err, scene.ErrUnsupportedShape):
		os.Remove(worldPath)
	default:
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, statesFile), result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

// newRunDir creates a fresh directory for a run, adding a suffix when
// another run of the same scene started in the same second.
func (s *Store) newRunDir(sceneName string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", sceneName, time.Now().Unix())
	runID := base
	for i := 1; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runDir, runID, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeWorld(path string, w *world.World) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scene.Encode(f, w)
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(statesHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, fr := range frames {
		if len(fr.Bodies) == 0 {
			// a blank id marks a frame with no bodies left
			row := []string{strconv.Itoa(fr.Step), format(fr.Time), "", "", "", "", "", "", ""}
			if err := cw.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, b := range fr.Bodies {
			row := []string{
				strconv.Itoa(fr.Step),
				format(fr.Time),
				strconv.FormatUint(uint64(b.ID), 10),
				format(b.X), format(b.Y), format(b.Rotation),
				format(b.VX), format(b.VY), format(b.Omega),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadFrames reads the recorded frames back, grouping rows by step.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	csvPath := filepath.Join(s.baseDir, runID, statesFile)
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(statesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", statesFile, i+1, err)
		}
		if rec[2] == "" {
			t, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", statesFile, i+1, err)
			}
			frames = append(frames, sim.Frame{Step: step, Time: t})
			continue
		}
		id, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", statesFile, i+1, err)
		}
		vals := make([]float64, 0, 7)
		for _, field := range append([]string{rec[1]}, rec[3:]...) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", statesFile, i+1, err)
			}
			vals = append(vals, v)
		}

		if n := len(frames); n == 0 || frames[n-1].Step != step {
			frames = append(frames, sim.Frame{Step: step, Time: vals[0]})
		}
		fr := &frames[len(frames)-1]
		fr.Bodies = append(fr.Bodies, sim.BodyState{
			ID:       world.BodyID(id),
			X:        vals[1],
			Y:        vals[2],
			Rotation: vals[3],
			VX:       vals[4],
			VY:       vals[5],
			Omega:    vals[6],
		})
	}

	return frames, nil
}

// LoadWorld rebuilds the run's final world with its recorded solver settings.
func (s *Store) LoadWorld(runID string) (*world.World, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if !meta.HasWorld {
		return nil, fmt.Errorf("run %s: %w", runID, scene.ErrUnsupportedShape)
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, worldFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return scene.Decode(f, geom.V(meta.Gravity[0], meta.Gravity[1]),
		world.WithIterations(max(meta.Iterations, 1)),
		world.WithWarmStarting(meta.WarmStarting))
}
