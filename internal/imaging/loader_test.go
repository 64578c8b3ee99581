package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage writes a solid PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, createInMemoryImage(width, height, c)))
	return path
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, createPatternImage(64, 48))

	desc, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 64, desc.Width)
	assert.Equal(t, 48, desc.Height)
	assert.Equal(t, "png", desc.Format)
	assert.Equal(t, image.Rect(0, 0, 64, 48), desc.Image.Bounds())
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, createInMemoryImage(30, 20, color.White), nil))

	desc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", desc.Format)
	assert.Equal(t, 30, desc.Width)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(encodePNG(t, createInMemoryImage(12, 8, color.Black)))

	desc, err := DecodeDataURL("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, 12, desc.Width)
	assert.Equal(t, 8, desc.Height)
}

func TestDecodeDataURL_Errors(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(encodePNG(t, createInMemoryImage(2, 2, color.Black)))

	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", payload},
		{"no payload", "data:image/png;base64"},
		{"not an image", "data:text/plain;base64," + payload},
		{"not base64", "data:image/png," + payload},
		{"corrupt payload", "data:image/png;base64,@@@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURL(tt.url)
			assert.Error(t, err)
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(encodePNG(t, createInMemoryImage(5, 7, color.White)))

	for name, in := range map[string]string{
		"raw":      payload,
		"data url": "data:image/png;base64," + payload,
		"padded":   "  " + payload + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			desc, err := DecodeBase64(in)
			require.NoError(t, err)
			assert.Equal(t, 5, desc.Width)
			assert.Equal(t, 7, desc.Height)
		})
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	require.NotNil(t, cache)
	assert.NotNil(t, cache.images)
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	desc1, err := cache.Load(imgPath)
	require.NoError(t, err)
	assert.Equal(t, 100, desc1.Width)
	assert.Equal(t, 100, desc1.Height)

	desc2, err := cache.Load(imgPath)
	require.NoError(t, err)
	assert.Same(t, desc1, desc2, "second Load should return the cached descriptor")
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	_, err := NewImageCache().Load("/nonexistent/path/to/image.png")
	assert.Error(t, err)
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewImageCache().Load(path)
	assert.Error(t, err)
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{0, 255, 0, 255})

	_, err := cache.Load(imgPath)
	require.NoError(t, err)

	cache.Evict(imgPath)
	cache.mu.RLock()
	_, exists := cache.images[imgPath]
	cache.mu.RUnlock()
	assert.False(t, exists, "Evict did not remove image from cache")

	_, err = cache.Load(imgPath)
	require.NoError(t, err)

	cache.Clear()
	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	assert.Zero(t, count)

	// Evicting a missing entry is a no-op.
	cache.Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	require.NoError(t, err)

	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 150, info.Height)
	assert.Equal(t, 1.33, info.AspectRatio)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)
}

func TestLoadImageInfo_FormatFromContent(t *testing.T) {
	// The extension is misleading; the decoder decides.
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, encodePNG(t, createInMemoryImage(10, 10, color.White)), 0o644))

	info, err := LoadImageInfo(NewImageCache(), path)
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	_, err := LoadImageInfo(NewImageCache(), "/nonexistent/image.png")
	assert.Error(t, err)
}
