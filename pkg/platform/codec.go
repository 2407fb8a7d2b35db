// Package platform carries method calls between Go and the native widget
// toolkit. Native backends push create/set/reparent/dispose operations
// through a MethodChannel; the host installs a NativeBridge that forwards
// the encoded calls to GTK, Cocoa or Win32, and feeds toolkit events back
// through HandleMethodCall.
package platform

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Codec turns call arguments and results into bytes for the native side.
type Codec interface {
	Encode(v any) ([]byte, error)
	// Decode returns nil for empty input.
	Decode(data []byte) (any, error)
}

// JSONCodec is the wire format every bundled toolkit host speaks. Numbers
// decode as float64.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("platform: encode %T: %w", v, err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("platform: decode: %w", err)
	}
	return v, nil
}

// DefaultCodec is used by every MethodChannel.
var DefaultCodec Codec = JSONCodec{}

var (
	ErrChannelNotFound     = errors.New("platform: no channel registered under that name")
	ErrChannelInUse        = errors.New("platform: channel name already registered")
	ErrMethodNotFound      = errors.New("platform: method not handled")
	ErrPlatformUnavailable = errors.New("platform: no native bridge installed")
)

// ChannelError is a structured failure reported by either side of a channel.
// Code is stable and machine readable; Message is for logs.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func NewChannelError(code, message string) *ChannelError {
	return &ChannelError{Code: code, Message: message}
}

func (e *ChannelError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another ChannelError with the same code.
func (e *ChannelError) Is(target error) bool {
	var other *ChannelError
	return errors.As(target, &other) && other.Code == e.Code
}
