package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Journal appends edit events to a local file, one JSON object per line,
// rotating the file when it grows past MaxSize.
type Journal struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxSize  int64
	maxFiles int
	written  int64
	filter   EventFilter
}

// JournalConfig configures a Journal.
type JournalConfig struct {
	Path     string
	MaxSize  int64 // bytes before rotation (default: 1MB)
	MaxFiles int   // rotated files kept (default: 3)
	Filter   EventFilter
}

// NewJournal opens (or creates) the journal file for appending.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1 << 20
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &Journal{
		file:     f,
		path:     cfg.Path,
		maxSize:  maxSize,
		maxFiles: maxFiles,
		filter:   cfg.Filter,
	}
	if info, err := f.Stat(); err == nil {
		j.written = info.Size()
	}
	return j, nil
}

// Write appends one event. Events rejected by the filter are skipped.
func (j *Journal) Write(ev EditEvent) error {
	if !j.filter.Matches(&ev) {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal closed")
	}
	n, err := j.file.Write(data)
	if err != nil {
		return err
	}
	j.written += int64(n)

	if j.written >= j.maxSize {
		j.rotate()
	}
	return nil
}

// HandleEvent is an EventCallback that logs write failures.
func (j *Journal) HandleEvent(ev EditEvent) {
	if err := j.Write(ev); err != nil {
		slog.Warn("journal write failed", "path", j.path, "err", err)
	}
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

func (j *Journal) rotate() {
	j.file.Close()
	j.file = nil

	for i := j.maxFiles - 1; i > 0; i-- {
		old := fmt.Sprintf("%s.%d", j.path, i)
		next := fmt.Sprintf("%s.%d", j.path, i+1)
		os.Rename(old, next)
	}
	os.Rename(j.path, j.path+".1")
	os.Remove(fmt.Sprintf("%s.%d", j.path, j.maxFiles+1))

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		slog.Warn("failed to open rotated journal", "err", err)
		return
	}
	j.file = f
	j.written = 0
}

// ReadJournal returns the events recorded in a journal file, oldest first.
func ReadJournal(path string) ([]EditEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var events []EditEvent
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var ev EditEvent
		if err := dec.Decode(&ev); err != nil {
			return events, fmt.Errorf("journal %s: %w", path, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
