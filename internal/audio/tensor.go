package audio

import (
	"fmt"

	"vocalprep/internal/services"
)

// Tensor is a model output: a flat float32 payload with its row-major shape.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Normalize returns the tensor as a 2-D [channels, frames] layout.
//
//   - [1, C, N] is squeezed to [C, N]
//   - [C, N] is returned unchanged
//   - [N] becomes [1, N]
//
// Any other rank, a leading batch dimension other than 1, or a payload whose
// length disagrees with the shape yields ErrUnexpectedShape.
func (t Tensor) Normalize() (Tensor, error) {
	if len(t.Shape) == 0 {
		return Tensor{}, unexpectedShape(t.Shape, "empty shape")
	}
	total := 1
	for _, dim := range t.Shape {
		if dim <= 0 {
			return Tensor{}, unexpectedShape(t.Shape, "non-positive dimension")
		}
		total *= dim
	}
	if total != len(t.Data) {
		return Tensor{}, unexpectedShape(t.Shape, fmt.Sprintf("shape holds %d values but data has %d", total, len(t.Data)))
	}
	switch len(t.Shape) {
	case 1:
		return Tensor{Shape: []int{1, t.Shape[0]}, Data: t.Data}, nil
	case 2:
		return t, nil
	case 3:
		if t.Shape[0] != 1 {
			return Tensor{}, unexpectedShape(t.Shape, "batch dimension must be 1")
		}
		return Tensor{Shape: []int{t.Shape[1], t.Shape[2]}, Data: t.Data}, nil
	default:
		return Tensor{}, unexpectedShape(t.Shape, fmt.Sprintf("rank %d not supported", len(t.Shape)))
	}
}

// ToBuffer normalizes the tensor and splits it into channels.
func (t Tensor) ToBuffer(sampleRate int) (Buffer, error) {
	norm, err := t.Normalize()
	if err != nil {
		return Buffer{}, err
	}
	channels, frames := norm.Shape[0], norm.Shape[1]
	buf := Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := 0; c < channels; c++ {
		buf.Channels[c] = norm.Data[c*frames : (c+1)*frames]
	}
	return buf, nil
}

// TensorFromBuffer packs a buffer as a [C, N] tensor.
func TensorFromBuffer(b Buffer) Tensor {
	channels, frames := b.NumChannels(), b.Frames()
	data := make([]float32, 0, channels*frames)
	for _, ch := range b.Channels {
		data = append(data, ch[:frames]...)
	}
	return Tensor{Shape: []int{channels, frames}, Data: data}
}

func unexpectedShape(shape []int, detail string) error {
	return services.Wrap(services.ErrUnexpectedShape, "", "normalize", fmt.Sprintf("%v: %s", shape, detail), nil)
}
