package handlers

import (
	"fmt"

	"github.com/ngrok/rsocket-go/internal/frame"
)

// RemoteError wraps a received Error frame as a Go error, preserving the
// wire error code for callers that need to branch on it.
type RemoteError struct {
	Code frame.ErrorCode
	Msg  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rsocket: remote error %s: %s", e.Code, e.Msg)
}

func applicationError(f *frame.ErrorFrame) error {
	return &RemoteError{Code: f.Code, Msg: string(f.Data())}
}
