package core

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v2"
)

//go:embed pipeline.yaml
var pipelineYaml []byte

type pipelineSpec struct {
	ImageSize int       `yaml:"image_size"`
	Mean      []float32 `yaml:"mean"`
	Std       []float32 `yaml:"std"`
}

var (
	pipelineOnce sync.Once
	pipelineCfg  pipelineSpec
	pipelineErr  error
)

func loadPipeline() (pipelineSpec, error) {
	pipelineOnce.Do(func() {
		if err := yaml.Unmarshal(pipelineYaml, &pipelineCfg); err != nil {
			pipelineErr = fmt.Errorf("failed to parse pipeline config: %w", err)
			return
		}
		if pipelineCfg.ImageSize <= 0 || len(pipelineCfg.Mean) != 3 || len(pipelineCfg.Std) != 3 {
			pipelineErr = fmt.Errorf("malformed pipeline config: %+v", pipelineCfg)
		}
	})
	return pipelineCfg, pipelineErr
}

// Tensor is a CHW float32 image tensor with a leading batch dimension.
// It is created per request and owned by that request's processing flow.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// Preprocess decodes imageBytes and produces the [1, 3, 224, 224] input
// tensor the model expects:
//
//  1. decode and force 3-channel RGB (alpha dropped, grayscale expanded)
//  2. bilinear resize to 224x224, stretching non-square inputs
//  3. scale pixel values to [0, 1]
//  4. HWC -> CHW
//  5. per-channel (x - mean) / std normalization
//
// The output is a deterministic function of the input bytes. Decode
// failures are reported as ErrInvalidImage.
func Preprocess(imageBytes []byte) (*Tensor, error) {
	cfg, err := loadPipeline()
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	size := cfg.ImageSize
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// RGBA returns 16-bit channels regardless of the source
			// color model, which handles grayscale and paletted images
			// uniformly.
			r, g, b, _ := resized.At(x, y).RGBA()

			i := y*size + x
			data[i] = (float32(r)/65535.0 - cfg.Mean[0]) / cfg.Std[0]
			data[plane+i] = (float32(g)/65535.0 - cfg.Mean[1]) / cfg.Std[1]
			data[2*plane+i] = (float32(b)/65535.0 - cfg.Mean[2]) / cfg.Std[2]
		}
	}

	return &Tensor{
		Data:  data,
		Shape: []int64{1, 3, int64(size), int64(size)},
	}, nil
}
