package lossless

import (
	jcodec "github.com/cocosip/go-jpeg12/codec"
)

// LosslessUID is the DICOM transfer syntax UID for JPEG Lossless,
// Non-Hierarchical (Process 14).
const LosslessUID = "1.2.840.10008.1.2.4.57"

var _ jcodec.Codec = registryCodec{}

// registryCodec exposes the lossless coder through the module's own
// codec registry, keyed by the transfer syntax UID and a short name.
type registryCodec struct{}

// UID returns the DICOM transfer syntax UID.
func (registryCodec) UID() string { return LosslessUID }

// Name returns the registry name.
func (registryCodec) Name() string { return "jpeg-lossless" }

// Encode compresses one frame of raw pixel data. The transfer syntax
// is restricted to selection value 1, so the predictor is fixed.
func (registryCodec) Encode(params jcodec.EncodeParams) ([]byte, error) {
	if params.Options != nil {
		if err := params.Options.Validate(); err != nil {
			return nil, err
		}
	}
	return EncodeOptions(params.PixelData, params.Width, params.Height,
		params.Components, params.BitDepth, Options{Predictor: 1})
}

// Decode decompresses one frame.
func (registryCodec) Decode(data []byte) (*jcodec.DecodeResult, error) {
	pixels, width, height, components, bitDepth, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &jcodec.DecodeResult{
		PixelData:  pixels,
		Width:      width,
		Height:     height,
		Components: components,
		BitDepth:   bitDepth,
	}, nil
}

func init() {
	jcodec.Register(registryCodec{})
}
