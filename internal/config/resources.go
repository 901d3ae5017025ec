package config

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// Store is a directory-backed store for template rasters with cached
// decoding: once a raster is loaded, subsequent Load calls for the same name
// return the cached copy without disk I/O.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	dir    string
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewStore returns a Store over the given resource directory. The directory
// is created on first write, not here.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		images: make(map[string]image.Image),
	}
}

// Path returns the on-disk path of a named resource.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load retrieves a raster from the cache or decodes it from disk.
func (s *Store) Load(name string) (image.Image, error) {
	s.mu.RLock()
	if img, ok := s.images[name]; ok {
		s.mu.RUnlock()
		return img, nil
	}
	s.mu.RUnlock()

	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open template image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template image: %w", err)
	}

	s.mu.Lock()
	s.images[name] = img
	s.mu.Unlock()

	return img, nil
}

// Save encodes a raster as PNG under the given name and updates the cache.
func (s *Store) Save(name string, img image.Image) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create resource directory: %w", err)
	}

	f, err := os.Create(s.Path(name))
	if err != nil {
		return fmt.Errorf("failed to create template image: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode template image: %w", err)
	}

	s.mu.Lock()
	s.images[name] = img
	s.mu.Unlock()

	return nil
}

// Create allocates an unused resource name of the form prefix<n>suffix and
// reserves it with an empty file.
func (s *Store) Create(prefix, suffix string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create resource directory: %w", err)
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%04d%s", prefix, i, suffix)
		f, err := os.OpenFile(s.Path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to reserve resource file: %w", err)
		}
		f.Close()
		return name, nil
	}
}

// Evict removes a raster from the cache by name. The file is untouched.
func (s *Store) Evict(name string) {
	s.mu.Lock()
	delete(s.images, name)
	s.mu.Unlock()
}

// Clear empties the cache, freeing the associated memory.
func (s *Store) Clear() {
	s.mu.Lock()
	s.images = make(map[string]image.Image)
	s.mu.Unlock()
}
