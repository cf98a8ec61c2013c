package frame

import "errors"

var (
	ErrEmptyImage        = errors.New("empty image: zero dimension or no components")
	ErrImageTooBig       = errors.New("image dimension exceeds the supported maximum")
	ErrBadPrecision      = errors.New("unsupported data precision")
	ErrBadSampling       = errors.New("sampling factor out of range")
	ErrComponentCount    = errors.New("too many components")
	ErrBadMCUSize        = errors.New("too many data units per MCU")
	ErrBadScanScript     = errors.New("invalid scan script")
	ErrBadProgScript     = errors.New("invalid progressive scan script")
	ErrBadLosslessScript = errors.New("invalid lossless scan script")
	ErrMissingData       = errors.New("scan script does not transmit all components")
	ErrNoScanScript      = errors.New("lossless compression requires a scan script")
)
