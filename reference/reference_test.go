package reference

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowalyzer/pronunciation/internal/audioio"
)

func writeTestWAV(t *testing.T, sampleRate int, freq float64, seconds float64) string {
	t.Helper()
	n := int(float64(sampleRate) * seconds)
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := audioio.WriteMonoWAV16(path, data, sampleRate); err != nil {
		t.Fatalf("write test wav: %v", err)
	}
	return path
}

func TestLoadResamplesToTarget(t *testing.T) {
	path := writeTestWAV(t, 44100, 440, 0.5)
	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clip.SampleRate != TargetSampleRate {
		t.Fatalf("SampleRate = %d, want %d", clip.SampleRate, TargetSampleRate)
	}
	wantLen := int(0.5 * float64(TargetSampleRate))
	if diff := len(clip.Samples) - wantLen; diff < -5 || diff > 5 {
		t.Fatalf("len(Samples) = %d, want close to %d", len(clip.Samples), wantLen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadAlreadyTargetRate(t *testing.T) {
	path := writeTestWAV(t, TargetSampleRate, 220, 0.25)
	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clip.SampleRate != TargetSampleRate {
		t.Fatalf("SampleRate = %d, want %d", clip.SampleRate, TargetSampleRate)
	}
	if len(clip.Samples) == 0 {
		t.Fatal("expected non-empty samples")
	}
}
