package event

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk layout of a YAML store:
//
//	events:
//	  - id: 5f0c...
//	    title: Standup
//	    start: 2025-08-25T09:30:00+02:00
//	    minutes: 15
//	    tags: [work]
type yamlFile struct {
	Events []yamlEvent `yaml:"events"`
}

type yamlEvent struct {
	ID      string    `yaml:"id"`
	Title   string    `yaml:"title"`
	Start   time.Time `yaml:"start"`
	Minutes int       `yaml:"minutes"`
	Notes   string    `yaml:"notes,omitempty"`
	Tags    []string  `yaml:"tags,omitempty"`
	Color   string    `yaml:"color,omitempty"`
}

// YAMLStore keeps events in a single YAML file. A missing file is an empty store
// and is created on the first Save.
type YAMLStore struct {
	path string
	mu   sync.Mutex
	fileWatch
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

func (s *YAMLStore) Name() string { return s.path }
func (s *YAMLStore) Path() string { return s.path }

func (s *YAMLStore) GetEvents(start, end time.Time) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0, len(doc.Events))
	for _, ye := range doc.Events {
		if ye.ID == "" {
			continue
		}
		e := NewWithID(ye.ID, ye.Title, ye.Start.In(time.Local), ye.Minutes)
		e.Source = s.Name()
		e.Notes = ye.Notes
		e.Tags = ye.Tags
		e.Color = ye.Color
		events = append(events, e)
	}
	return inWindow(events, start, end), nil
}

// Save inserts e or replaces the stored event with the same ID.
func (s *YAMLStore) Save(e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	ye := yamlEvent{
		ID:      e.ID(),
		Title:   e.Title(),
		Start:   e.ScheduledTime(),
		Minutes: e.DurationMinutes(),
		Notes:   e.Notes,
		Tags:    e.Tags,
		Color:   e.Color,
	}

	replaced := false
	for i := range doc.Events {
		if doc.Events[i].ID == ye.ID {
			doc.Events[i] = ye
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Events = append(doc.Events, ye)
	}
	return s.write(doc)
}

func (s *YAMLStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	for i := range doc.Events {
		if doc.Events[i].ID == id {
			doc.Events = append(doc.Events[:i], doc.Events[i+1:]...)
			return s.write(doc)
		}
	}
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (s *YAMLStore) WatchFiles() (<-chan FileChangeEvent, error) {
	return s.fileWatch.start(s.path)
}

func (s *YAMLStore) StopWatching() error {
	return s.fileWatch.stop()
}

func (s *YAMLStore) read() (yamlFile, error) {
	var doc yamlFile
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically.
func (s *YAMLStore) write(doc yamlFile) error {
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".skuld-*.yaml")
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
