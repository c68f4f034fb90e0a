package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"reelops/models"
)

var csvFileHeader = append(append([]string{}, models.CSVHeader...), "Created At")

// logFile is what Append needs from the file it writes to.
type logFile interface {
	io.WriterAt
	Stat() (os.FileInfo, error)
	Sync() error
	Truncate(size int64) error
	Close() error
}

func openLogFile(path string) (logFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CSVStore appends the log to a flat file. Writers are serialised within the
// process; a failed append truncates the file back to its prior length.
type CSVStore struct {
	mu   sync.Mutex
	path string
	open func(path string) (logFile, error)
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path, open: openLogFile}
}

func (s *CSVStore) Append(_ context.Context, records []models.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	size := info.Size()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if size == 0 {
		_ = w.Write(csvFileHeader)
	}
	for _, r := range records {
		row := append(r.Row(), r.CreatedAt.Format(time.RFC3339Nano))
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	if _, err := f.WriteAt(buf.Bytes(), size); err != nil {
		return s.rollback(f, size, fmt.Errorf("write %s: %w", s.path, err))
	}
	if err := f.Sync(); err != nil {
		return s.rollback(f, size, fmt.Errorf("sync %s: %w", s.path, err))
	}
	return nil
}

func (s *CSVStore) rollback(f logFile, size int64, cause error) error {
	if err := f.Truncate(size); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback %s: %w", s.path, err))
	}
	return cause
}

func (s *CSVStore) List(_ context.Context) ([]models.OperationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []models.OperationRecord
	for line := 0; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if line == 0 && len(row) > 0 && row[0] == csvFileHeader[0] {
			continue
		}
		if len(row) < len(models.CSVHeader) {
			return nil, fmt.Errorf("read %s: line %d has %d fields", s.path, line+1, len(row))
		}
		rec := models.OperationRecord{
			ID:             strconv.Itoa(line),
			Date:           row[0],
			Time:           row[1],
			Timeslot:       row[2],
			TechnicianName: row[3],
			ButtonName:     row[4],
			Status:         row[5],
		}
		if len(row) > 6 {
			rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, row[6])
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear leaves the file in place with only its header.
func (s *CSVStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("truncate %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write(csvFileHeader)
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write header %s: %w", s.path, err)
	}
	return f.Sync()
}

func (s *CSVStore) Close() error { return nil }
