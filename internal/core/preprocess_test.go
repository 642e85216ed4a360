package core

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func uniformImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessOutputShape(t *testing.T) {
	sizes := []struct{ w, h int }{
		{64, 64},
		{224, 224},
		{500, 300}, // non-square inputs are stretched, not cropped
		{13, 640},
	}

	for _, s := range sizes {
		tensor, err := Preprocess(encodePNG(t, gradientImage(s.w, s.h)))
		require.NoError(t, err, "source %dx%d", s.w, s.h)

		assert.Equal(t, []int64{1, 3, 224, 224}, tensor.Shape)
		assert.Len(t, tensor.Data, 3*224*224)
	}
}

func TestPreprocessNormalizationCentersAroundZero(t *testing.T) {
	tensor, err := Preprocess(encodePNG(t, gradientImage(64, 64)))
	require.NoError(t, err)

	var hasNegative, hasPositive bool
	for _, v := range tensor.Data {
		if v < 0 {
			hasNegative = true
		}
		if v > 0 {
			hasPositive = true
		}
	}
	assert.True(t, hasNegative, "normalized tensor should contain negative values")
	assert.True(t, hasPositive, "normalized tensor should contain positive values")
}

func TestPreprocessKnownPixelValues(t *testing.T) {
	// A uniform image stays uniform through bilinear resize, so every
	// channel plane holds a single known normalized value.
	cornflower := color.RGBA{R: 100, G: 149, B: 237, A: 255}
	tensor, err := Preprocess(encodePNG(t, uniformImage(32, 32, cornflower)))
	require.NoError(t, err)

	plane := 224 * 224
	wantR := (float64(100)/255 - 0.485) / 0.229
	wantG := (float64(149)/255 - 0.456) / 0.224
	wantB := (float64(237)/255 - 0.406) / 0.225

	assert.InDelta(t, wantR, float64(tensor.Data[0]), 1e-3)
	assert.InDelta(t, wantG, float64(tensor.Data[plane]), 1e-3)
	assert.InDelta(t, wantB, float64(tensor.Data[2*plane]), 1e-3)
}

func TestPreprocessDeterministic(t *testing.T) {
	input := encodePNG(t, gradientImage(100, 80))

	first, err := Preprocess(input)
	require.NoError(t, err)
	second, err := Preprocess(input)
	require.NoError(t, err)

	assert.Equal(t, first.Shape, second.Shape)
	assert.Equal(t, first.Data, second.Data)
}

func TestPreprocessGrayscaleExpandsToThreeChannels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 5)})
		}
	}

	tensor, err := Preprocess(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 224, 224}, tensor.Shape)
}

func TestPreprocessCorruptBytes(t *testing.T) {
	for _, input := range [][]byte{
		[]byte("definitely not an image"),
		{},
		{0x89, 0x50, 0x4e}, // truncated PNG signature
	} {
		tensor, err := Preprocess(input)
		assert.Nil(t, tensor)
		assert.ErrorIs(t, err, ErrInvalidImage)
	}
}
