package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable means the register snapshot could not be read. Lookups
// fail closed when this happens: the number is reported as not found and
// the condition is surfaced for operational alerting.
var ErrUnavailable = errors.New("reference registry unavailable")

const referenceColumn = "Reference Number"

// ReferenceRegistry answers membership queries against the RCVS register
// snapshot. Implementations are read-only.
type ReferenceRegistry interface {
	Lookup(referenceNumber string) (bool, error)
}

// CSVRegistry caches the snapshot in memory for the process lifetime.
// Reload swaps the cached set atomically, so lookups never observe a
// half-loaded register.
type CSVRegistry struct {
	logger *zap.Logger
	path   string

	mu      sync.RWMutex
	numbers map[string]struct{}
	loadErr error
}

func NewCSVRegistry(logger *zap.Logger, path string) *CSVRegistry {
	r := &CSVRegistry{logger: logger, path: path}
	if err := r.Reload(); err != nil && logger != nil {
		logger.Warn("reference registry initial load failed", zap.Error(err), zap.String("path", path))
	}
	return r
}

// Reload re-reads the snapshot from disk. On failure the previous set is
// kept if one was loaded; a registry that never loaded fails closed.
func (r *CSVRegistry) Reload() error {
	f, err := os.Open(r.path)
	if err != nil {
		return r.recordLoadErr(err)
	}
	defer f.Close()

	numbers, err := parseSnapshot(f)
	if err != nil {
		return r.recordLoadErr(err)
	}

	r.mu.Lock()
	r.numbers = numbers
	r.loadErr = nil
	r.mu.Unlock()
	return nil
}

func (r *CSVRegistry) recordLoadErr(err error) error {
	r.mu.Lock()
	if r.numbers == nil {
		r.loadErr = err
	}
	r.mu.Unlock()
	return err
}

// Lookup reports whether the trimmed reference number appears in the
// snapshot via exact string equality.
func (r *CSVRegistry) Lookup(referenceNumber string) (bool, error) {
	r.mu.RLock()
	numbers := r.numbers
	loadErr := r.loadErr
	r.mu.RUnlock()

	if numbers == nil {
		if loadErr != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, loadErr)
		}
		return false, ErrUnavailable
	}

	_, ok := numbers[strings.TrimSpace(referenceNumber)]
	return ok, nil
}

// parseSnapshot reads the ';'-delimited register export and collects the
// trimmed values of the Reference Number column.
func parseSnapshot(src io.Reader) (map[string]struct{}, error) {
	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading register header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == referenceColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("register snapshot missing %q column", referenceColumn)
	}

	numbers := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading register row: %w", err)
		}
		if col >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[col])
		if value != "" {
			numbers[value] = struct{}{}
		}
	}
	return numbers, nil
}
