package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/branding"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

// Names excluded from stored records and from defaults respectively.
const (
	HistoryVar = "HISTORY"
	PieceVar   = "PIECE_NAME"
)

// Record is one remembered variable set.
type Record map[string]any

// Label renders the record as sorted KEY=value pairs.
func (r Record) Label() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r[k]))
	}
	return strings.Join(parts, ", ")
}

// Store reads and writes the history file.
type Store struct {
	Path string
	// Size caps the number of stored records.
	Size int
}

// NewStore returns the store for a puzzle directory.
func NewStore(puzzleDir string, size int) *Store {
	return &Store{Path: filepath.Join(puzzleDir, branding.HistoryFile()), Size: size}
}

// Load returns the stored records, most recent first. A missing file is an
// empty history.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", s.Path, err)
	}
	return records, nil
}

// Add stores rec as the most recent record. HISTORY is dropped, an
// identical earlier record is removed and the list is truncated to Size.
func (s *Store) Add(rec Record) error {
	records, err := s.Load()
	if err != nil {
		return err
	}

	clean := make(Record, len(rec))
	for k, v := range rec {
		if k != HistoryVar {
			clean[k] = v
		}
	}

	out := []Record{clean}
	for _, r := range records {
		if !reflect.DeepEqual(r, clean) {
			out = append(out, r)
		}
	}
	if s.Size > 0 && len(out) > s.Size {
		out = out[:s.Size]
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Save stores the assigned variables of t.
func (s *Store) Save(t *vars.Table) error {
	return s.Add(Record(t.Snapshot()))
}

// Defaults merges the first n records into one default per name, the most
// recent value winning. PIECE_NAME is never a default.
func Defaults(records []Record, n int) map[string]vars.Value {
	out := make(map[string]vars.Value)
	for i, r := range records {
		if n > 0 && i >= n {
			break
		}
		for k, raw := range r {
			if k == PieceVar || k == HistoryVar {
				continue
			}
			if _, seen := out[k]; seen {
				continue
			}
			if v, ok := vars.FromAny(raw); ok {
				out[k] = v
			}
		}
	}
	return out
}

// RecordDefaults converts a single record into defaults.
func RecordDefaults(r Record) map[string]vars.Value {
	return Defaults([]Record{r}, 1)
}

// Choose asks the user to pick one of the first n records. ok is false
// when there is nothing to choose from.
func Choose(ctx context.Context, p prompt.Prompter, records []Record, n int) (Record, bool, error) {
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = fmt.Sprintf("Record %d: %s", i+1, r.Label())
	}
	answer, err := p.Select(ctx, prompt.Question{
		Name:    HistoryVar,
		Message: "Select a record to reuse:",
		Choices: labels,
	})
	if err != nil {
		return nil, false, err
	}
	for i, l := range labels {
		if l == answer {
			return records[i], true, nil
		}
	}
	return nil, false, fmt.Errorf("unknown history record %q", answer)
}
