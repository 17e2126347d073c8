package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/sandeepkv93/focusloop/internal/model"
)

var ErrInvalidImport = errors.New("state: invalid import file")

type exportMeta struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    int       `json:"version"`
}

type exportDoc struct {
	model.State
	Meta exportMeta `json:"meta"`
}

// Export renders st as an indented JSON document with a meta block.
func Export(st *model.State, now time.Time) ([]byte, error) {
	doc := exportDoc{
		State: *st.Clone(),
		Meta:  exportMeta{ExportedAt: now.UTC(), Version: model.StateVersion},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Decode parses an exported document. The tasks field must be an array and
// loops must be present. Every timer in the result is cleared.
func Decode(raw []byte) (*model.State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	tasks, ok := probe["tasks"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(tasks), []byte("[")) {
		return nil, fmt.Errorf("%w: tasks must be an array", ErrInvalidImport)
	}
	loops, ok := probe["loops"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(loops), []byte("{")) {
		return nil, fmt.Errorf("%w: loops missing", ErrInvalidImport)
	}

	var doc exportDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	st := doc.State
	st.Normalize()
	for _, id := range model.LoopIDs {
		st.Timer(id).Clear()
	}
	st.LastCompletionToken = ""
	return &st, nil
}

func ExportFile(fs afero.Fs, path string, st *model.State, now time.Time) error {
	raw, err := Export(st, now)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, path, raw, 0o644)
}

func ImportFile(fs afero.Fs, path string) (*model.State, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// ExportFileName is the default name for an export written on date now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("focus-loops-%s.json", now.Format("2006-01-02"))
}
