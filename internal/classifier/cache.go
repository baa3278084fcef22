package classifier

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Cache holds loaded models keyed by file path and evicts an entry when the
// file behind it changes on disk, so a dataset reload is picked up without a
// restart.
type Cache struct {
	mu      sync.Mutex
	models  map[string]*XGBClassifier
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
}

// NewCache creates a model cache. The caller must Close it.
func NewCache(logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c := &Cache{
		models:  make(map[string]*XGBClassifier),
		watcher: watcher,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go c.watch()
	return c, nil
}

// Get returns the cached model for path, loading it on first use.
func (c *Cache) Get(path string) (Classifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[path]; ok {
		return m, nil
	}
	m, err := LoadXGBClassifier(path)
	if err != nil {
		return nil, err
	}
	c.models[path] = m
	if err := c.watcher.Add(path); err != nil {
		c.logger.Warn("model file watch failed", zap.String("path", path), zap.Error(err))
	}
	return m, nil
}

func (c *Cache) watch() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c.mu.Lock()
			if _, cached := c.models[event.Name]; cached {
				delete(c.models, event.Name)
				c.logger.Info("model evicted after file change",
					zap.String("path", event.Name), zap.String("op", event.Op.String()))
			}
			c.mu.Unlock()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("model watch error", zap.Error(err))
		}
	}
}

// Close stops the watcher and drops all cached models.
func (c *Cache) Close() error {
	close(c.done)
	c.mu.Lock()
	c.models = make(map[string]*XGBClassifier)
	c.mu.Unlock()
	return c.watcher.Close()
}
