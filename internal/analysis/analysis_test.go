package analysis

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPowerSpectrumOddLength(t *testing.T) {
	data := make([]float64, 6)
	for i := range data {
		data[i] = 4 + math.Cos(2*math.Pi*float64(i)/6)
	}

	ps := PowerSpectrum(data)
	if len(ps) != 3 {
		t.Fatalf("expected 3 bins, got %d", len(ps))
	}
	expected := []float64{0, 3, 0}
	for k, want := range expected {
		if math.Abs(ps[k]-want) > 1e-9 {
			t.Errorf("bin %d: expected %f, got %f", k, want, ps[k])
		}
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 50 {
		t.Errorf("expected 50 bins, got %d", len(ps))
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		n        = 64
		interval = 1.0 / 64
		f        = 2.0
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*f*float64(i)*interval)
	}

	got, power := DominantFrequency(data, interval)
	if math.Abs(got-f) > 1e-9 {
		t.Errorf("expected %.1f Hz, got %.4f", f, got)
	}
	if power <= 0 {
		t.Errorf("expected positive power, got %f", power)
	}
}

func TestDominantFrequencyAnyLength(t *testing.T) {
	const (
		n        = 100
		interval = 0.01
		f        = 5.0
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * f * float64(i) * interval)
	}

	got, _ := DominantFrequency(data, interval)
	if math.Abs(got-f) > 1e-9 {
		t.Errorf("expected %.1f Hz, got %.4f", f, got)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	got, power := DominantFrequency([]float64{2, 2, 2, 2, 2}, 0.1)
	if got != 0 || power != 0 {
		t.Errorf("expected (0, 0) for flat series, got (%f, %f)", got, power)
	}
}

func TestHeightProfile(t *testing.T) {
	frames := [][]mgl64.Vec3{
		{{0, 1, 0}, {0, 3, 0}},
		{{0, -2, 0}, {5, -4, 5}},
		{},
	}
	mean, top := HeightProfile(frames)

	expectMean := []float64{2, -3, 0}
	expectTop := []float64{3, -2, 0}
	for i := range frames {
		if mean[i] != expectMean[i] {
			t.Errorf("frame %d: expected mean %f, got %f", i, expectMean[i], mean[i])
		}
		if top[i] != expectTop[i] {
			t.Errorf("frame %d: expected top %f, got %f", i, expectTop[i], top[i])
		}
	}
}
