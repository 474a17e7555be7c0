package recipe

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Library loads every recipe file in a directory and can watch it for
// changes. One file per recipe; duplicate names across files are a load
// error so an operator never silently runs the wrong variant.
type Library struct {
	dir      string
	mu       sync.RWMutex
	recipes  map[string]*Recipe
	onChange []func()
	watcher  *fsnotify.Watcher
}

// NewLibrary creates a Library and performs the initial load.
func NewLibrary(dir string) (*Library, error) {
	l := &Library{dir: dir}
	recipes, err := l.load()
	if err != nil {
		return nil, err
	}
	l.recipes = recipes
	return l, nil
}

// Get returns the named recipe, or false if it is not in the library.
func (l *Library) Get(name string) (*Recipe, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.recipes[name]
	return r, ok
}

// Names returns all recipe names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.recipes))
	for name := range l.recipes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OnChange registers a callback invoked whenever the library reloads.
func (l *Library) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Reload forces an immediate re-read of the recipe directory.
func (l *Library) Reload() error {
	recipes, err := l.load()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.recipes = recipes
	callbacks := make([]func(), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Watch starts a background goroutine that reloads the library when
// recipe files change. A reload that fails leaves the previous set in
// place. Call the returned stop function to clean up.
func (l *Library) Watch(log *slog.Logger) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("recipe watcher: %w", err)
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("recipe watcher add %s: %w", l.dir, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isRecipeFile(ev.Name) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					if err := l.Reload(); err != nil {
						log.Warn("recipe reload skipped", "err", err)
					} else {
						log.Info("recipe library reloaded", "recipes", len(l.Names()))
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (l *Library) load() (map[string]*Recipe, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read recipe dir %s: %w", l.dir, err)
	}
	recipes := make(map[string]*Recipe)
	files := make(map[string]string) // name → file, for duplicate reporting
	for _, e := range entries {
		if e.IsDir() || !isRecipeFile(e.Name()) {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read recipe %s: %w", path, err)
		}
		var r Recipe
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse recipe %s: %w", path, err)
		}
		if err := Validate(&r); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := files[r.Name]; ok {
			return nil, fmt.Errorf("duplicate recipe name %q (in %s and %s)", r.Name, prev, e.Name())
		}
		files[r.Name] = e.Name()
		recipes[r.Name] = &r
	}
	return recipes, nil
}

func isRecipeFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
