package event

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "github.com/cwarden/skuld/internal/log"
)

const debounceDelay = 100 * time.Millisecond

// FileWatcher reports changes to individual files. It watches each file's
// directory so that editors and stores replacing a file by rename are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]int
	timers   map[string]*time.Timer
	onChange func(string)
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		onChange: onChange,
		done:     make(chan struct{}),
	}

	go fw.watch()
	return fw, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.files[absPath] {
		return nil // Already watching
	}

	dir := filepath.Dir(absPath)
	if fw.dirs[dir] == 0 {
		if err := fw.watcher.Add(dir); err != nil {
			return err
		}
	}
	fw.dirs[dir]++
	fw.files[absPath] = true
	return nil
}

func (fw *FileWatcher) RemoveFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[absPath] {
		return nil // Not watching
	}
	delete(fw.files, absPath)

	dir := filepath.Dir(absPath)
	fw.dirs[dir]--
	if fw.dirs[dir] > 0 {
		return nil
	}
	delete(fw.dirs, dir)
	return fw.watcher.Remove(dir)
}

func (fw *FileWatcher) watch() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.schedule(filepath.Clean(event.Name))

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			applog.Warn("file watcher error", "err", err)

		case <-fw.done:
			return
		}
	}
}

// schedule debounces bursts of events for one file into a single callback.
func (fw *FileWatcher) schedule(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[name] {
		return
	}
	if timer, exists := fw.timers[name]; exists {
		timer.Stop()
	}
	fw.timers[name] = time.AfterFunc(debounceDelay, func() {
		fw.mu.Lock()
		delete(fw.timers, name)
		watching := fw.files[name]
		fw.mu.Unlock()

		if watching && fw.onChange != nil {
			fw.onChange(name)
		}
	})
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		fw.mu.Lock()
		for name, timer := range fw.timers {
			timer.Stop()
			delete(fw.timers, name)
		}
		fw.files = make(map[string]bool)
		fw.mu.Unlock()
		err = fw.watcher.Close()
	})
	return err
}

// fileWatch gives a single-file source its WatchFiles and StopWatching.
type fileWatch struct {
	mu      sync.Mutex
	watcher *FileWatcher
	ch      chan FileChangeEvent
}

func (w *fileWatch) start(path string) (<-chan FileChangeEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ch != nil {
		return w.ch, nil
	}

	ch := make(chan FileChangeEvent, 1)
	fw, err := NewFileWatcher(func(name string) {
		select {
		case ch <- FileChangeEvent{Path: name, Timestamp: time.Now()}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	if err := fw.AddFile(path); err != nil {
		fw.Close()
		return nil, err
	}

	w.watcher = fw
	w.ch = ch
	return ch, nil
}

func (w *fileWatch) stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	w.ch = nil
	return err
}
