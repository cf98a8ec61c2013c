package lossless

import (
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
)

// Ensure JPEGLosslessParameters implements codec.Parameters
var _ codec.Parameters = (*JPEGLosslessParameters)(nil)

// JPEGLosslessParameters contains parameters for JPEG Lossless compression
type JPEGLosslessParameters struct {
	// Predictor selects the prediction algorithm (0-7)
	// - 0: Auto-select predictor (default)
	// - 1: No prediction (A)
	// - 2: Horizontal prediction (A)
	// - 3: Vertical prediction (B)
	// - 4: Diagonal prediction (A+B-C)
	// - 5: A + (B-C)/2
	// - 6: B + (A-C)/2
	// - 7: (A+B)/2
	//
	// For medical imaging, predictor 1 (horizontal) is commonly used and recommended.
	Predictor int

	// PointTransform drops this many low-order bits before prediction.
	// Nonzero values are not truly lossless; medical transfer syntaxes
	// require 0.
	PointTransform int

	// internal storage for compatibility with generic parameter interface
	params map[string]interface{}
}

// NewLosslessParameters creates a new JPEGLosslessParameters with default values
func NewLosslessParameters() *JPEGLosslessParameters {
	return &JPEGLosslessParameters{
		Predictor: 0, // Default auto-select
		params:    make(map[string]interface{}),
	}
}

// GetParameter retrieves a parameter by name (implements codec.Parameters)
func (p *JPEGLosslessParameters) GetParameter(name string) interface{} {
	switch name {
	case "predictor":
		return p.Predictor
	case "pointTransform":
		return p.PointTransform
	default:
		// Check custom parameters
		return p.params[name]
	}
}

// SetParameter sets a parameter value (implements codec.Parameters)
func (p *JPEGLosslessParameters) SetParameter(name string, value interface{}) {
	switch name {
	case "predictor":
		if v, ok := value.(int); ok {
			p.Predictor = v
		}
	case "pointTransform":
		if v, ok := value.(int); ok {
			p.PointTransform = v
		}
	default:
		// Store as custom parameter
		p.params[name] = value
	}
}

// Validate checks if the parameters are valid and adjusts them if needed
func (p *JPEGLosslessParameters) Validate() error {
	// Predictor must be in range 0-7
	if p.Predictor < 0 || p.Predictor > 7 {
		p.Predictor = 0 // Reset to default (auto-select)
	}
	if p.PointTransform < 0 {
		p.PointTransform = 0
	}
	return nil
}

// WithPredictor sets the predictor and returns the parameters for chaining
func (p *JPEGLosslessParameters) WithPredictor(predictor int) *JPEGLosslessParameters {
	p.Predictor = predictor
	return p
}
