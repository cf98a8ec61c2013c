package codec_test

import (
	"encoding/binary"
	"testing"

	"github.com/cocosip/go-jpeg12/codec"
	_ "github.com/cocosip/go-jpeg12/jpeg/lossless"
)

func TestCodecRegistry(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantFound bool
		wantUID   string
		wantName  string
	}{
		{
			name:      "Get lossless by UID",
			key:       "1.2.840.10008.1.2.4.57",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.57",
			wantName:  "jpeg-lossless",
		},
		{
			name:      "Get lossless by name",
			key:       "jpeg-lossless",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.57",
			wantName:  "jpeg-lossless",
		},
		{
			name:      "Get non-existent codec",
			key:       "non-existent",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := codec.Get(tt.key)

			if tt.wantFound {
				if err != nil {
					t.Errorf("Get(%q) unexpected error: %v", tt.key, err)
					return
				}
				if c == nil {
					t.Errorf("Get(%q) returned nil codec", tt.key)
					return
				}
				if c.UID() != tt.wantUID {
					t.Errorf("Get(%q).UID() = %q, want %q", tt.key, c.UID(), tt.wantUID)
				}
				if c.Name() != tt.wantName {
					t.Errorf("Get(%q).Name() = %q, want %q", tt.key, c.Name(), tt.wantName)
				}
			} else {
				if err == nil {
					t.Errorf("Get(%q) expected error, got nil", tt.key)
				}
				if err != codec.ErrCodecNotFound {
					t.Errorf("Get(%q) error = %v, want %v", tt.key, err, codec.ErrCodecNotFound)
				}
			}
		})
	}
}

func TestListCodecs(t *testing.T) {
	codecs := codec.List()

	if len(codecs) < 1 {
		t.Fatalf("List() returned %d codecs, want at least 1", len(codecs))
	}

	found := false
	for _, c := range codecs {
		if c.UID() == "1.2.840.10008.1.2.4.57" {
			found = true
			if c.Name() != "jpeg-lossless" {
				t.Errorf("Lossless codec name = %q, want %q", c.Name(), "jpeg-lossless")
			}
		}
	}
	if !found {
		t.Error("List() did not include the JPEG Lossless codec")
	}
}

func TestLosslessCodecEncodeDecode(t *testing.T) {
	c, err := codec.Get("jpeg-lossless")
	if err != nil {
		t.Fatalf("Failed to get lossless codec: %v", err)
	}

	// 32x32 grayscale, 12-bit samples in 16-bit words.
	width, height := 32, 32
	pixelData := make([]byte, width*height*2)
	for i := 0; i < width*height; i++ {
		binary.LittleEndian.PutUint16(pixelData[2*i:], uint16((i*37)%4096))
	}

	params := codec.EncodeParams{
		PixelData:  pixelData,
		Width:      width,
		Height:     height,
		Components: 1,
		BitDepth:   12,
	}

	compressed, err := c.Encode(params)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	t.Logf("Compressed size: %d bytes (%.1f%% of raw)",
		len(compressed), 100*float64(len(compressed))/float64(len(pixelData)))

	result, err := c.Decode(compressed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if result.Width != width {
		t.Errorf("Width = %d, want %d", result.Width, width)
	}
	if result.Height != height {
		t.Errorf("Height = %d, want %d", result.Height, height)
	}
	if result.Components != 1 {
		t.Errorf("Components = %d, want 1", result.Components)
	}
	if result.BitDepth != 12 {
		t.Errorf("BitDepth = %d, want 12", result.BitDepth)
	}

	if len(result.PixelData) != len(pixelData) {
		t.Fatalf("Data length mismatch: got %d, want %d", len(result.PixelData), len(pixelData))
	}
	errors := 0
	for i := range pixelData {
		if pixelData[i] != result.PixelData[i] {
			errors++
			if errors <= 5 {
				t.Errorf("Byte %d mismatch: got %d, want %d", i, result.PixelData[i], pixelData[i])
			}
		}
	}
	if errors > 0 {
		t.Errorf("Total byte errors: %d (lossless should have 0)", errors)
	}
}

func TestEncodeParamsValidation(t *testing.T) {
	c, err := codec.Get("jpeg-lossless")
	if err != nil {
		t.Fatalf("Failed to get lossless codec: %v", err)
	}

	opts := &codec.BaseOptions{Quality: 200}
	_, err = c.Encode(codec.EncodeParams{
		PixelData:  make([]byte, 8),
		Width:      2,
		Height:     2,
		Components: 1,
		BitDepth:   16,
		Options:    opts,
	})
	if err != codec.ErrInvalidQuality {
		t.Errorf("Got %v, want ErrInvalidQuality", err)
	}
}
