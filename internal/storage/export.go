package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

type ExportFrame struct {
	Time      float64      `json:"t"`
	Positions [][3]float64 `json:"positions"`
}

// Export writes run runID with all of its frames as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:    *meta,
		Frames: make([]ExportFrame, len(frames)),
	}
	for i, f := range frames {
		out := ExportFrame{Time: f.Time, Positions: make([][3]float64, len(f.Pos))}
		for j, p := range f.Pos {
			out.Positions[j] = [3]float64(p)
		}
		data.Frames[i] = out
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.Export(file, runID)
}
