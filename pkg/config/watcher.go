package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/masallsome/gwsyncer/pkg/logging"
)

// Watcher watches the configuration file on disk. On a write/create event it
// reloads and parses the file, then non-blocking-sends the new Config on
// Updates() so a slow or absent consumer never stalls the filesystem loop.
type Watcher struct {
	configPath string
	updates    chan *Config
	watcher    *fsnotify.Watcher
	log        *logging.Logger
}

// NewWatcher builds a Watcher for path; the underlying fsnotify watcher is
// created but not yet watching until Start is called.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		configPath: path,
		updates:    make(chan *Config, 10),
		watcher:    w,
		log:        logging.NewDefault("config.watcher"),
	}, nil
}

// Updates returns the channel new Configs are published on after a reload.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Start performs the initial load, then blocks processing fsnotify events
// until the underlying watcher is closed.
func (w *Watcher) Start() error {
	defer w.watcher.Close()

	if err := w.reload(); err != nil {
		w.log.Warnf("error loading initial config: %v", err)
	}

	if err := w.watcher.Add(w.configPath); err != nil {
		return err
	}
	w.log.Infof("watching config file: %s", w.configPath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.log.Infof("config file modified: %s", event.Name)
				if err := w.reload(); err != nil {
					w.log.Warnf("error reloading config: %v", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() error {
	cfg, err := LoadConfig(w.configPath)
	if err != nil {
		return err
	}

	select {
	case w.updates <- cfg:
		w.log.Info("config reloaded")
	default:
		w.log.Warn("update channel full, dropping update (consumer too slow)")
	}
	return nil
}
