package lossless

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/cocosip/go-jpeg12/jpeg/common"
)

// buildSamples fills a width x height x components image at the given
// bit depth from gen, little-endian for samples wider than 8 bits.
func buildSamples(width, height, components, bitDepth int, gen func(x, y, c int) int) []byte {
	mask := 1<<uint(bitDepth) - 1
	bytesPerSample := (bitDepth + 7) / 8
	out := make([]byte, width*height*components*bytesPerSample)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < components; c++ {
				v := uint16(gen(x, y, c) & mask)
				i := (y*width+x)*components + c
				if bytesPerSample == 1 {
					out[i] = byte(v)
				} else {
					binary.LittleEndian.PutUint16(out[2*i:], v)
				}
			}
		}
	}
	return out
}

// roundTrip encodes pixelData with opts, decodes the stream back and
// fails the test unless the reconstruction is bit-exact.
func roundTrip(t *testing.T, pixelData []byte, width, height, components, bitDepth int, opts Options) {
	t.Helper()
	jpegData, err := EncodeOptions(pixelData, width, height, components, bitDepth, opts)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, w, h, comps, bits, err := Decode(jpegData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w != width || h != height || comps != components || bits != bitDepth {
		t.Fatalf("Metadata mismatch: got %dx%d comps=%d bits=%d, want %dx%d comps=%d bits=%d",
			w, h, comps, bits, width, height, components, bitDepth)
	}
	if len(decoded) != len(pixelData) {
		t.Fatalf("Data length mismatch: got %d, want %d", len(decoded), len(pixelData))
	}
	if !bytes.Equal(decoded, pixelData) {
		for i := range pixelData {
			if decoded[i] != pixelData[i] {
				t.Fatalf("First mismatch at byte %d: got %d, want %d", i, decoded[i], pixelData[i])
			}
		}
	}
	t.Logf("Compressed %d -> %d bytes (%.2fx)", len(pixelData), len(jpegData),
		float64(len(pixelData))/float64(len(jpegData)))
}

func TestPredictorRoundTrips(t *testing.T) {
	// Odd dimensions keep the entropy stream from ending byte-aligned,
	// so the decoder must synthesize zero bits past the trailing marker
	// to finish the last samples, for every predictor and depth.
	width, height := 37, 23
	for _, bitDepth := range []int{8, 12, 16} {
		for sel := 1; sel <= 7; sel++ {
			t.Run(fmt.Sprintf("%d-bit %s", bitDepth, PredictorName(sel)), func(t *testing.T) {
				pix := buildSamples(width, height, 1, bitDepth, func(x, y, _ int) int {
					return x*89 + y*1021 + (x*y)%7
				})
				roundTrip(t, pix, width, height, 1, bitDepth, Options{Predictor: sel})
			})
		}
	}
}

func TestAutoPredictorSelection(t *testing.T) {
	width, height := 48, 31
	pix := buildSamples(width, height, 1, 12, func(x, y, _ int) int {
		return x*3 + y*5
	})
	roundTrip(t, pix, width, height, 1, 12, Options{})
}

func TestColorRoundTrip(t *testing.T) {
	width, height := 33, 29
	for _, bitDepth := range []int{8, 12} {
		t.Run(fmt.Sprintf("%d-bit", bitDepth), func(t *testing.T) {
			pix := buildSamples(width, height, 3, bitDepth, func(x, y, c int) int {
				switch c {
				case 0:
					return x * 8
				case 1:
					return y * 8
				default:
					return (x + y) * 4
				}
			})
			roundTrip(t, pix, width, height, 3, bitDepth, Options{Predictor: 4})
		})
	}
}

func TestSigned16BitRoundTrip(t *testing.T) {
	// Two's-complement data passes through unshifted; the codec treats
	// it as raw 16-bit words.
	values := []int16{-32768, -2000, -10, 0, 10, 1000, 2000, 30000, 32767}
	width, height := 9, 5
	pix := make([]byte, width*height*2)
	for i := 0; i < width*height; i++ {
		binary.LittleEndian.PutUint16(pix[2*i:], uint16(values[i%len(values)]))
	}
	roundTrip(t, pix, width, height, 1, 16, Options{Predictor: 1})
}

func TestRandomizedRoundTrips(t *testing.T) {
	// Random content, geometry and options sweep the stream tail across
	// every bit alignment.
	for seed := uint64(1); seed <= 12; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, 0)) // Deterministic
			width := 9 + rng.IntN(40)
			height := 5 + rng.IntN(24)
			bitDepth := []int{8, 12, 16}[rng.IntN(3)]
			components := []int{1, 3}[rng.IntN(2)]
			opts := Options{Predictor: rng.IntN(8)}
			if rng.IntN(3) == 0 {
				opts.RestartInRows = 1 + rng.IntN(4)
			}
			pix := buildSamples(width, height, components, bitDepth, func(_, _, _ int) int {
				return rng.Int()
			})
			roundTrip(t, pix, width, height, components, bitDepth, opts)
		})
	}
}

func TestEncodeRejectsBadParameters(t *testing.T) {
	pix := make([]byte, 64*64*2)

	tests := []struct {
		name       string
		width      int
		height     int
		components int
		bitDepth   int
		opts       Options
		wantErr    error
	}{
		{"zero width", 0, 64, 1, 8, Options{Predictor: 1}, common.ErrInvalidDimensions},
		{"zero height", 64, 0, 1, 8, Options{Predictor: 1}, common.ErrInvalidDimensions},
		{"two components", 64, 64, 2, 8, Options{Predictor: 1}, common.ErrInvalidComponents},
		{"bit depth too low", 64, 64, 1, 1, Options{Predictor: 1}, common.ErrInvalidBitDepth},
		{"bit depth too high", 64, 64, 1, 17, Options{Predictor: 1}, common.ErrInvalidBitDepth},
		{"negative predictor", 64, 64, 1, 8, Options{Predictor: -1}, common.ErrInvalidPredictor},
		{"predictor out of range", 64, 64, 1, 8, Options{Predictor: 8}, common.ErrInvalidPredictor},
		{"point transform too wide", 64, 64, 1, 8, Options{Predictor: 1, PointTransform: 8}, common.ErrInvalidPrecision},
		{"short buffer", 65, 64, 1, 16, Options{Predictor: 1}, common.ErrBufferTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeOptions(pix, tt.width, tt.height, tt.components, tt.bitDepth, tt.opts)
			if err != tt.wantErr {
				t.Errorf("Got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func benchmarkSamples(bitDepth int) ([]byte, int, int) {
	width, height := 512, 512
	return buildSamples(width, height, 1, bitDepth, func(x, y, _ int) int {
		return x*13 + y*37 + (x*y)%11
	}), width, height
}

func BenchmarkEncode12Bit(b *testing.B) {
	pix, width, height := benchmarkSamples(12)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeOptions(pix, width, height, 1, 12, Options{Predictor: 1}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode12Bit(b *testing.B) {
	pix, width, height := benchmarkSamples(12)
	jpegData, err := EncodeOptions(pix, width, height, 1, 12, Options{Predictor: 1})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, _, _, err := Decode(jpegData); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPredictors(b *testing.B) {
	pix, width, height := benchmarkSamples(8)
	for sel := 1; sel <= 7; sel++ {
		b.Run(PredictorName(sel), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := EncodeOptions(pix, width, height, 1, 8, Options{Predictor: sel}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
