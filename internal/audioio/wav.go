// Package audioio adapts the teacher's WAV decode/encode helpers
// (internal/fitcommon) to the pronunciation tool's mono-f32 world.
package audioio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"

	wav "github.com/cwbudde/wav"
)

// ReadWAVMono decodes path, downmixes to mono, and returns samples as
// float64 in [-1, 1] alongside the file's native sample rate.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audioio: invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("audioio: invalid wav buffer: %s", path)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	maxAbs := maxIntSampleAbs(buf.SourceBitDepth)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = (sum / float64(ch)) / maxAbs
	}
	return out, buf.Format.SampleRate, nil
}

func maxIntSampleAbs(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << uint(bitDepth-1))
}

// WriteMonoWAV16 writes mono float32 PCM in [-1, 1] as a 16-bit WAV.
func WriteMonoWAV16(path string, data []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}
