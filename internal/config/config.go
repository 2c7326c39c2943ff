// Package config loads and hot-reloads the server's YAML configuration
// file, grounded on the teacher's internal/server.Config field shape and
// on wingthing's LoadWingConfig/SaveWingConfig for the yaml.v3 load/save
// pattern and fsnotify-driven reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config is the server's on-disk configuration, the fields original_source
// keeps in pika.conf that this rewrite's command surface actually reads.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	BinlogDir    string `yaml:"binlog_dir"`
	SafetyMargin int    `yaml:"safety_margin"` // segments PURGELOGSTO must always leave behind

	Requirepass string `yaml:"requirepass,omitempty"`
	Masterauth  string `yaml:"masterauth,omitempty"`

	SlaveReadOnly bool `yaml:"slave_read_only"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration a fresh install starts from,
// matching the teacher's DefaultConfig shape trimmed to this server's
// fields.
func Default() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          9221,
		BinlogDir:     "binlog",
		SafetyMargin:  10,
		SlaveReadOnly: true,
		LogLevel:      "info",
	}
}

// Load reads path, falling back to Default() if the file doesn't exist
// yet, matching LoadWingConfig's no-error-on-missing-file behavior.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its parent directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Watcher reloads Config from disk whenever the underlying file changes,
// handing each reloaded value to onChange. It reacts to any write of the
// file on disk; the CONFIG REWRITE command writes nothing, so it never
// triggers a reload.
type Watcher struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	done     chan struct{}
}

// NewWatcher starts watching path's directory (fsnotify watches
// directories, not bare files, so renames-over-the-original-path from
// editors are picked up too) and calls onChange on every write event
// that parses successfully.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	w := &Watcher{path: path, watcher: fw, onChange: onChange, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Clean(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				continue
			}
			w.onChange(cfg)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
