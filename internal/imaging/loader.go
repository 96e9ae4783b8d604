package imaging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ImageCache provides thread-safe caching of loaded containers to avoid
// redundant disk reads and decodes.
//
// Containers are keyed by their file path and loaded with
// DefaultLoadOptions for that path. Since containers are immutable, the
// cached value can be handed to any number of callers.
//
// # Memory Management
//
// Cached containers remain in memory until explicitly removed via Evict()
// or Clear(). A Float16 RGBA 4096×4096 texture occupies 128 MiB, so
// long-running processes should evict what they no longer need.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/albedo.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use img...
//	cache.Evict("/path/to/albedo.png") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Container
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Container),
	}
}

// Load retrieves a container from the cache or loads it from disk.
//
// Parameters:
//   - path: file path to the image. See FileDecoder for supported formats.
//
// Returns:
//   - *Container: the decoded, classified image
//   - error: a DecodeFailure if the file cannot be read or decoded
//
// Different paths to the same file (e.g., relative vs absolute) result in
// separate cache entries.
func (c *ImageCache) Load(path string) (*Container, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path, DefaultLoadOptions(path))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all containers from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Container)
	c.mu.Unlock()
}

// Evict removes a specific container from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached containers.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded texture source.
type ImageInfo struct {
	// Width, Height and Depth are the image dimensions in texels.
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`

	// Format is the file extension without the dot, e.g. "png" or "hdr".
	Format string `json:"format"`

	// Components is the number of components per texel (1-4).
	Components int `json:"components"`

	// ComponentType is "int8", "uint8" or "float16".
	ComponentType string `json:"component_type"`

	// ColorProfile names the attached profile, empty when none.
	ColorProfile string `json:"color_profile,omitempty"`

	// SRGB, Linear and HDR are the classification flags.
	SRGB   bool `json:"srgb"`
	Linear bool `json:"linear"`
	HDR    bool `json:"hdr"`

	// MipLevels is the length of the full mip chain.
	MipLevels int `json:"mip_levels"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and reports its metadata.
//
// # Errors
//
//   - Returns a DecodeFailure if the image cannot be loaded
//   - Returns error if the file cannot be stat'ed
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, newError("stat", Other, err)
	}

	info := Describe(img)
	info.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	info.FileSizeBytes = stat.Size()
	return info, nil
}

// Describe reports the metadata of an in-memory container.
func Describe(img *Container) *ImageInfo {
	info := &ImageInfo{
		Width:         img.width,
		Height:        img.height,
		Depth:         img.depth,
		Components:    img.format.Count,
		ComponentType: img.format.Type.String(),
		SRGB:          img.color.SRGB,
		Linear:        img.color.Linear,
		HDR:           img.color.HDR,
		MipLevels:     img.CalculateMipLevelCount(),
	}
	if p := img.color.Profile; p != nil {
		info.ColorProfile = p.Name()
	}
	return info
}
