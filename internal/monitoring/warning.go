package monitoring

import "fmt"

// WarningCode identifies a class of data-quality condition. Warnings are
// non-fatal: the batch continues and the caller decides what to surface.
type WarningCode string

const (
	// WarnDuplicateFrame means two samples shared a frame number and only
	// the first occurrence was kept.
	WarnDuplicateFrame WarningCode = "duplicate_frame"

	// WarnGapDetected means consecutive samples were more than one nominal
	// frame step apart (player off pitch, tracking dropout).
	WarnGapDetected WarningCode = "gap_detected"

	// WarnMalformedSample means a raw record was rejected during indexing.
	WarnMalformedSample WarningCode = "malformed_sample"

	// WarnImplausibleSpeed means a derived speed exceeded the configured
	// plausibility bound and was zeroed.
	WarnImplausibleSpeed WarningCode = "implausible_speed"

	// WarnPartialSlice means a reconstructed trajectory covered fewer frames
	// than the window duration implies.
	WarnPartialSlice WarningCode = "partial_slice"
)

// Warning records one data-quality condition tied to a player and frame.
type Warning struct {
	Code     WarningCode
	PlayerID int
	Frame    int64
	Detail   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: player=%d frame=%d %s", w.Code, w.PlayerID, w.Frame, w.Detail)
}

// Warnf builds a Warning and also emits it through the package logger so
// conditions are visible even when the caller discards the returned slice.
func Warnf(code WarningCode, playerID int, frame int64, format string, v ...interface{}) Warning {
	w := Warning{Code: code, PlayerID: playerID, Frame: frame, Detail: fmt.Sprintf(format, v...)}
	Logf("warning: %s", w)
	return w
}
