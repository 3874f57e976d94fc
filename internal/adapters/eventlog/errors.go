package eventlog

import "errors"

// ErrLogFull is returned when the bounded event log rejects a write.
var ErrLogFull = errors.New("event log full")
