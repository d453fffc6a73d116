package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPNG encodes a solid-color PNG of the given size.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 60, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	info, err := Probe(testPNG(t, 300, 450))
	require.NoError(t, err)
	assert.Equal(t, 300, info.Width)
	assert.Equal(t, 450, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.Size)
}

func TestProbe_RejectsGarbage(t *testing.T) {
	_, err := Probe([]byte("not an image"))
	assert.Error(t, err)

	_, err = Probe(nil)
	assert.Error(t, err)
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(testPNG(t, 200, 300))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	// 4x3 components encode to a short placeholder string.
	assert.Less(t, len(hash), 40)
}

func TestComputeBlurHash_SmallImageSkipsResize(t *testing.T) {
	hash, err := ComputeBlurHash(testPNG(t, 16, 16))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestResizeForBlurHash_PreservesAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 320))
	resized := resizeForBlurHash(img)
	bounds := resized.Bounds()
	assert.Equal(t, blurHashSize, bounds.Dx())
	assert.Equal(t, blurHashSize/2, bounds.Dy())
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	info, err := p.Process(testPNG(t, 120, 180))
	require.NoError(t, err)
	assert.Equal(t, 120, info.Width)
	assert.Equal(t, 180, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.NotEmpty(t, info.BlurHash)
}

func TestProcessor_Process_RejectsOversized(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	_, err := p.Process(make([]byte, maxImageSize+1))
	assert.Error(t, err)
}

func TestStorage_SaveGetDelete(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "covers")
	require.NoError(t, err)

	data := testPNG(t, 10, 10)
	require.NoError(t, storage.Save("book-1", data))

	assert.True(t, storage.Exists("book-1"))
	assert.False(t, storage.Exists("book-2"))

	got, err := storage.Get("book-1")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	hash, err := storage.Hash("book-1")
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	require.NoError(t, storage.Delete("book-1"))
	assert.False(t, storage.Exists("book-1"))

	// Deleting again is not an error.
	require.NoError(t, storage.Delete("book-1"))
}

func TestStorage_RejectsEmptyInputs(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "covers")
	require.NoError(t, err)

	assert.Error(t, storage.Save("", []byte{1}))
	assert.Error(t, storage.Save("book-1", nil))

	_, err = storage.Get("")
	assert.Error(t, err)

	_, err = NewStorage("", "covers")
	assert.Error(t, err)
}
