package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ilyakaznacheev/cleanenv"
)

// Loader reads the config file and watches it, plus any extra directories,
// for changes.
type Loader struct {
	path        string
	log         *slog.Logger
	mu          sync.RWMutex
	current     *Config
	onChange    []func(*Config)
	onDirChange []func(dir, file string)
}

// NewLoader creates a Loader and performs the initial load. An empty path
// loads from the environment and defaults only.
func NewLoader(path string, log *slog.Logger) (*Loader, error) {
	l := &Loader{path: path, log: log.With("service", "config")}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnDirChange registers a callback invoked when a YAML file changes in one
// of the directories passed to Watch.
func (l *Loader) OnDirChange(fn func(dir, file string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDirChange = append(l.onDirChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes and reports YAML changes in dirs. Call the returned stop function
// to clean up.
func (l *Loader) Watch(dirs ...string) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	// Watch parent directories: editors replace files by rename, which
	// drops a watch placed on the file itself.
	configDir := ""
	if l.path != "" {
		configDir = filepath.Clean(filepath.Dir(l.path))
		if err := w.Add(configDir); err != nil {
			w.Close()
			return nil, fmt.Errorf("config watcher add %s: %w", configDir, err)
		}
	}
	watched := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		d = filepath.Clean(d)
		if d != configDir {
			if err := w.Add(d); err != nil {
				w.Close()
				return nil, fmt.Errorf("config watcher add %s: %w", d, err)
			}
		}
		watched[d] = true
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)) {
					continue
				}
				name := filepath.Clean(ev.Name)
				if l.path != "" && name == filepath.Clean(l.path) {
					if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
						if _, err := l.Reload(); err != nil {
							l.log.Error("config reload failed, keeping previous config", slog.Any("error", err))
						}
					}
					continue
				}
				if dir := filepath.Dir(name); watched[dir] && isYAML(name) {
					l.dirChanged(dir, name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.log.Warn("config watcher error", slog.Any("error", err))
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) dirChanged(dir, file string) {
	l.mu.RLock()
	callbacks := make([]func(string, string), len(l.onDirChange))
	copy(callbacks, l.onDirChange)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		fn(dir, file)
	}
}

func (l *Loader) load() (*Config, error) {
	var cfg Config
	if l.path != "" {
		if err := cleanenv.ReadConfig(l.path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
