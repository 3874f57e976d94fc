package calibration

import "errors"

// Sentinel kinds for calibration errors.
var (
	// ErrUnstableCapture rejects one posture capture; the caller should
	// prompt a recapture.
	ErrUnstableCapture = errors.New("capture scatter exceeds stability threshold")

	// ErrCalibrationFailed ends the flow after the recapture budget is
	// spent. The caller decides the fallback.
	ErrCalibrationFailed = errors.New("calibration failed after maximum recapture attempts")

	ErrInsufficientSamples  = errors.New("not enough stable sub-samples for a capture")
	ErrMissingPosture       = errors.New("folded and extended postures are required")
	ErrDegenerateCaptures   = errors.New("posture captures are inconsistent with the segment length")
	ErrInvalidSegmentLength = errors.New("segment length must be positive")

	// ErrExcessiveVariance accompanies a profile whose anchor-distance
	// spread exceeds the quality threshold; the profile is returned with
	// Valid=false, never silently accepted.
	ErrExcessiveVariance = errors.New("anchor distance variance exceeds quality threshold")
)
