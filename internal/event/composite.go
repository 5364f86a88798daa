package event

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	applog "github.com/cwarden/skuld/internal/log"
)

// LoadError reports sources that failed during a composite load. The events of
// every other source are still returned alongside it.
type LoadError struct {
	Failed map[string]error
}

func (e *LoadError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Failed[name]))
	}
	return "loading events: " + strings.Join(parts, "; ")
}

// CompositeSource combines multiple Sources
type CompositeSource struct {
	sources   []Source
	mu        sync.RWMutex
	eventChan chan FileChangeEvent
	stopChans []chan struct{}
	forwards  sync.WaitGroup
}

// NewCompositeSource creates a new composite source
func NewCompositeSource(sources ...Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

func (c *CompositeSource) Name() string { return "composite" }

// AddSource adds a new source to the composite
func (c *CompositeSource) AddSource(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, source)
}

// Lookup finds a member source by name.
func (c *CompositeSource) Lookup(name string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Sources returns the member sources in the order they were added.
func (c *CompositeSource) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// GetEvents combines events from all sources, de-duplicated by ID with the first
// source winning. Failing sources are skipped and reported in a *LoadError.
func (c *CompositeSource) GetEvents(start, end time.Time) ([]*Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []*Event
	seen := make(map[string]bool)
	var failed map[string]error

	for _, source := range c.sources {
		events, err := source.GetEvents(start, end)
		if err != nil {
			applog.Error("source failed", err, "source", source.Name())
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[source.Name()] = err
			continue
		}

		for _, e := range events {
			if seen[e.ID()] {
				applog.Debug("duplicate event id across sources", "id", e.ID(), "source", source.Name())
				continue
			}
			seen[e.ID()] = true
			all = append(all, e)
		}
	}

	sortEvents(all)
	if failed != nil {
		return all, &LoadError{Failed: failed}
	}
	return all, nil
}

// WatchFiles watches all sources and fans their changes into one channel.
func (c *CompositeSource) WatchFiles() (<-chan FileChangeEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eventChan != nil {
		return c.eventChan, nil
	}
	c.eventChan = make(chan FileChangeEvent, 10)

	for _, source := range c.sources {
		sourceChan, err := source.WatchFiles()
		if err != nil {
			applog.Warn("cannot watch source", "source", source.Name(), "err", err)
			continue
		}
		if sourceChan == nil {
			continue
		}

		stopChan := make(chan struct{})
		c.stopChans = append(c.stopChans, stopChan)
		c.forwards.Add(1)

		go func(src <-chan FileChangeEvent, stop chan struct{}, out chan<- FileChangeEvent) {
			defer c.forwards.Done()
			for {
				select {
				case event, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- event:
					default:
						// Channel full; a refresh is already pending.
					}
				case <-stop:
					return
				}
			}
		}(sourceChan, stopChan, c.eventChan)
	}

	return c.eventChan, nil
}

// StopWatching stops watching all sources and closes the channel returned by
// WatchFiles.
func (c *CompositeSource) StopWatching() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stopChan := range c.stopChans {
		close(stopChan)
	}
	c.stopChans = nil
	c.forwards.Wait()

	var firstErr error
	for _, source := range c.sources {
		if err := source.StopWatching(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop watching %s: %w", source.Name(), err)
		}
	}

	if c.eventChan != nil {
		close(c.eventChan)
		c.eventChan = nil
	}

	return firstErr
}
