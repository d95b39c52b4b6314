package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Kind identifies one derived artifact owned by the record store.
// The values double as the published file names.
type Kind string

const (
	KindRiskReport      Kind = "supplier_risk_report.csv"
	KindAnomalyReport   Kind = "anomaly_report.csv"
	KindClusterReport   Kind = "supplier_clusters.csv"
	KindModelComparison Kind = "model_comparison.csv"
	KindTrainingLog     Kind = "training_log.csv"
	KindRiskLog         Kind = "risk_training_log.csv"
	KindSummary         Kind = "final_procurement_summary.csv"
	KindModel           Kind = "model.json"
)

// ErrArtifactNotFound indicates the artifact has not been produced yet.
var ErrArtifactNotFound = errors.New("artifact not found")

// Table is a tabular artifact: a header plus string-rendered rows.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Store is the record-store boundary for derived artifacts. Compute stages
// receive a Store instead of opening file paths themselves.
type Store interface {
	// Read returns the artifact or ErrArtifactNotFound.
	Read(kind Kind) (*Table, error)
	// Load is the optional-result variant: ok is false when the artifact
	// does not exist, err reports actual read failures only.
	Load(kind Kind) (t *Table, ok bool, err error)
	// Write replaces the artifact wholesale. The replacement is atomic,
	// a failed write leaves any previously published artifact untouched.
	Write(kind Kind, t *Table) error
	// Append adds one row to an append-only artifact, creating it with the
	// given header on first use. Prior rows are never rewritten.
	Append(kind Kind, columns []string, row []string) error
	// WriteRaw replaces an opaque (non-tabular) artifact such as the
	// serialized model.
	WriteRaw(kind Kind, b []byte) error
	// ReadRaw returns an opaque artifact or ErrArtifactNotFound.
	ReadRaw(kind Kind) ([]byte, error)
}

// FileStore publishes artifacts as files in a single reports directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the reports directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("reports directory required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create reports dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the full path of the artifact file.
func (s *FileStore) Path(kind Kind) string {
	return filepath.Join(s.dir, string(kind))
}

func (s *FileStore) Read(kind Kind) (*Table, error) {
	b, err := s.ReadRaw(kind)
	if err != nil {
		return nil, err
	}
	return decodeTable(b)
}

func (s *FileStore) Load(kind Kind) (*Table, bool, error) {
	t, err := s.Read(kind)
	if errors.Is(err, ErrArtifactNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *FileStore) Write(kind Kind, t *Table) error {
	b, err := encodeTable(t)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return s.WriteRaw(kind, b)
}

func (s *FileStore) Append(kind Kind, columns []string, row []string) error {
	path := s.Path(kind)

	_, statErr := os.Stat(path)
	if errors.Is(statErr, os.ErrNotExist) {
		return s.WriteRaw(kind, mustEncodeRows(append([][]string{columns}, row)))
	}
	if statErr != nil {
		return fmt.Errorf("failed to stat %s: %w", kind, statErr)
	}

	existing, err := s.Read(kind)
	if err != nil {
		return fmt.Errorf("failed to read log %s before append: %w", kind, err)
	}
	if !slices.Equal(existing.Columns, columns) {
		return fmt.Errorf("log %s header mismatch: have %v, want %v", kind, existing.Columns, columns)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log %s for append: %w", kind, err)
	}
	defer file.Close()

	// One write call per appended row, prior content is never touched.
	if _, err := file.Write(mustEncodeRows([][]string{row})); err != nil {
		return fmt.Errorf("failed to append to log %s: %w", kind, err)
	}

	return file.Sync()
}

func (s *FileStore) WriteRaw(kind Kind, b []byte) error {
	path := s.Path(kind)

	tmp, err := os.CreateTemp(s.dir, string(kind)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", kind, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file for %s: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %s: %w", kind, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}

	return nil
}

func (s *FileStore) ReadRaw(kind Kind) ([]byte, error) {
	b, err := os.ReadFile(s.Path(kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", kind, err)
	}
	return b, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.Mutex
	tables map[Kind]*Table
	raw    map[Kind][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		tables: make(map[Kind]*Table),
		raw:    make(map[Kind][]byte),
	}
}

func (s *MemStore) Read(kind Kind) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, kind)
	}
	return copyTable(t), nil
}

func (s *MemStore) Load(kind Kind) (*Table, bool, error) {
	t, err := s.Read(kind)
	if errors.Is(err, ErrArtifactNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *MemStore) Write(kind Kind, t *Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[kind] = copyTable(t)
	return nil
}

func (s *MemStore) Append(kind Kind, columns []string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[kind]
	if !ok {
		s.tables[kind] = &Table{Columns: slices.Clone(columns), Rows: [][]string{slices.Clone(row)}}
		return nil
	}
	if !slices.Equal(t.Columns, columns) {
		return fmt.Errorf("log %s header mismatch", kind)
	}
	t.Rows = append(t.Rows, slices.Clone(row))
	return nil
}

func (s *MemStore) WriteRaw(kind Kind, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[kind] = slices.Clone(b)
	return nil
}

func (s *MemStore) ReadRaw(kind Kind) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.raw[kind]; ok {
		return slices.Clone(b), nil
	}
	// tabular artifacts are still readable raw, as they would be on disk
	if t, ok := s.tables[kind]; ok {
		return encodeTable(t)
	}
	return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, kind)
}

func encodeTable(t *Table) ([]byte, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, errors.New("table with columns required")
	}
	return mustEncodeRows(append([][]string{t.Columns}, t.Rows...)), nil
}

func decodeTable(b []byte) (*Table, error) {
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("artifact has no header")
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

func mustEncodeRows(rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// csv.Writer only errors on a broken underlying writer, which a
	// bytes.Buffer never is.
	_ = w.WriteAll(rows)
	return buf.Bytes()
}

func copyTable(t *Table) *Table {
	out := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, 0, len(t.Rows))}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, slices.Clone(r))
	}
	return out
}
