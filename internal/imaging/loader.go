package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Descriptor is a decoded image together with its dimensions.
//
// A Descriptor is owned by the caller. Analysis code only reads it; the
// overlay renderer draws onto a copy.
type Descriptor struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the name of the decoder that read the image ("png", "jpeg",
	// "gif", ...). Empty for images built in memory.
	Format string `json:"format"`

	// Image is the decoded raster.
	Image image.Image `json:"-"`
}

// NewDescriptor wraps an in-memory image.
func NewDescriptor(img image.Image) *Descriptor {
	b := img.Bounds()
	return &Descriptor{Width: b.Dx(), Height: b.Dy(), Image: img}
}

// Decode reads an encoded image from r.
//
// EXIF orientation is applied so that camera photos come out upright; Width
// and Height describe the image after orientation.
func Decode(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) (*Descriptor, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	desc := NewDescriptor(img)
	desc.Format = format
	return desc, nil
}

// Load opens and decodes the image file at path.
func Load(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	return Decode(f)
}

// DecodeDataURL decodes a "data:image/<type>;base64,<payload>" URL, the form
// browsers produce for camera captures and canvas snapshots.
func DecodeDataURL(url string) (*Descriptor, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, errors.New("not a data URL")
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("data URL has no payload")
	}
	if !strings.HasPrefix(header, "image/") {
		return nil, errors.Errorf("data URL media type %q is not an image", header)
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("data URL is not base64 encoded")
	}

	return DecodeBase64(payload)
}

// DecodeBase64 decodes a base64 encoded image. A full data URL is accepted
// as well.
func DecodeBase64(s string) (*Descriptor, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		return DecodeDataURL(s)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base64 image data")
	}
	return decodeBytes(data)
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded descriptors keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy
// without disk I/O.
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Descriptor
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Descriptor),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (*Descriptor, error) {
	c.mu.RLock()
	if desc, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return desc, nil
	}
	c.mu.RUnlock()

	desc, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = desc
	c.mu.Unlock()

	return desc, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Descriptor)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file on disk.
type ImageInfo struct {
	Metadata

	// Format is the decoder name: "png", "jpeg", "gif", ...
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image has an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and describes it.
//
// Unlike Summarize, a degenerate image is not an error here; its aspect
// ratio is reported as zero.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	desc, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	meta, err := Summarize(desc)
	if err != nil {
		meta = Metadata{Width: desc.Width, Height: desc.Height}
	}

	hasAlpha := false
	switch desc.Image.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	return &ImageInfo{
		Metadata:      meta,
		Format:        desc.Format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
