package control

import "errors"

var (
	ErrBadRestartInterval = errors.New("restart interval does not divide the MCUs per row")
	ErrTruncatedScan      = errors.New("entropy data ended before the scan was complete")
)
