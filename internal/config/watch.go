package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/j-veylop/quonitor/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watcher reloads the .env file when it changes on disk.
type Watcher struct {
	watcher       *fsnotify.Watcher
	onChange      func(*Config)
	stopChan      chan struct{}
	debounceTimer *time.Timer
	path          string
	closeOnce     sync.Once
	mu            sync.Mutex
}

// Watch calls onChange with a freshly built config each time the file at
// path is written or created. Invalid edits are logged and skipped.
func Watch(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory (to catch editors that replace the file)
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		stopChan: make(chan struct{}),
		path:     path,
	}
	go w.watchLoop()
	return w, nil
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	select {
	case <-w.stopChan:
		return
	default:
	}

	if err := godotenv.Overload(w.path); err != nil {
		logger.Warn("failed to reload env file", "path", w.path, "error", err)
		return
	}
	cfg, err := fromEnv()
	if err != nil {
		logger.Warn("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	cfg.EnvFile = w.path

	logger.Info("configuration reloaded", "path", w.path)
	w.onChange(cfg)
}

// Close stops the file watcher and cleans up resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}
