package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLoadConfig         = errors.New("load config failed")
	ErrInvalidQueueSize   = errors.New("ingest queue size must be positive")
	ErrInvalidBufferSize  = errors.New("buffer sizes must hold at least two samples")
	ErrInvalidClampBound  = errors.New("rom clamp bound must be positive")
	ErrInvalidCalibration = errors.New("invalid calibration thresholds")
	ErrInvalidDetection   = errors.New("invalid detection thresholds")
)

func wrapLoadError(err error) error {
	return fmt.Errorf("%w: %v", ErrLoadConfig, err)
}
