package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/config"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
)

var ErrFrameNotFound = errors.New("storage: frame not found")

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
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Timestamp      time.Time          `json:"timestamp"`
	Backend        string             `json:"backend"`
	Config         config.Config      `json:"config"`
	Steps          int                `json:"steps"`
	SimTime        float64            `json:"sim_time"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	StepsPerSecond float64            `json:"steps_per_second"`
	Frames         int                `json:"frames"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Recorder streams position frames of one run to disk. Finish must be called
// to write the metadata and release the file.
type Recorder struct {
	dir    string
	meta   RunMetadata
	file   *os.File
	w      *csv.Writer
	frames int
}

// Create makes a new run directory and opens its position log. meta.ID and
// meta.Timestamp are filled in.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(runDir, positionsFile))
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(file)
	if err := w.Write([]string{"t", "x", "y", "z"}); err != nil {
		file.Close()
		return nil, err
	}

	return &Recorder{dir: runDir, meta: meta, file: file, w: w}, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// Frame appends one row per ball at simulation time t.
func (r *Recorder) Frame(t float64, pos []mgl64.Vec3) error {
	ts := strconv.FormatFloat(t, 'f', 6, 64)
	row := make([]string, 4)
	for _, p := range pos {
		row[0] = ts
		row[1] = strconv.FormatFloat(p[0], 'f', 6, 64)
		row[2] = strconv.FormatFloat(p[1], 'f', 6, 64)
		row[3] = strconv.FormatFloat(p[2], 'f', 6, 64)
		if err := r.w.Write(row); err != nil {
			return err
		}
	}
	r.frames++
	return nil
}

// Finish flushes the position log and writes metadata.json. Non-finite
// metric values are left out.
func (r *Recorder) Finish(steps int, simTime float64, elapsed time.Duration, metrics map[string]float64) error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}

	meta := r.meta
	meta.Steps = steps
	meta.SimTime = simTime
	meta.ElapsedSeconds = elapsed.Seconds()
	if meta.ElapsedSeconds > 0 {
		meta.StepsPerSecond = float64(steps) / meta.ElapsedSeconds
	}
	meta.Frames = r.frames
	meta.Metrics = make(map[string]float64, len(metrics))
	for k, v := range metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}

	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns the metadata of every finished run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

type Frame struct {
	Time float64
	Pos  []mgl64.Vec3
}

// LoadFrames reads every frame of a run. Consecutive rows with the same time
// belong to one frame.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, 0)
	last := ""
	for i := 1; i < len(records); i++ {
		record := records[i]

		var v [4]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(record[j], 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", positionsFile, i+1, err)
			}
		}

		if len(frames) == 0 || record[0] != last {
			frames = append(frames, Frame{Time: v[0]})
			last = record[0]
		}
		f := &frames[len(frames)-1]
		f.Pos = append(f.Pos, mgl64.Vec3{v[1], v[2], v[3]})
	}

	return frames, nil
}

// LoadFrame returns frame index of a run; negative indices count from the
// end.
func (s *Store) LoadFrame(runID string, index int) (*Frame, error) {
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		index += len(frames)
	}
	if index < 0 || index >= len(frames) {
		return nil, fmt.Errorf("%w: %d of %d in %s", ErrFrameNotFound, index, len(frames), runID)
	}
	return &frames[index], nil
}
