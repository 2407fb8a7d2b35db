package platform

import (
	"encoding/json"
	"sync"
)

// noopBridge is a NativeBridge that accepts all calls without side effects.
type noopBridge struct{}

func (noopBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	return DefaultCodec.Encode(nil)
}

// SetupTestBridge installs a no-op native bridge and synchronous dispatch
// function for testing. The cleanup function should be testing.T.Cleanup or
// equivalent; it registers a teardown that calls ResetForTest.
//
//	platform.SetupTestBridge(t.Cleanup)
func SetupTestBridge(cleanup func(func())) {
	SetNativeBridge(noopBridge{})
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
}

// RecordedCall is a native invocation captured by a RecordingBridge.
type RecordedCall struct {
	Channel string
	Method  string
	Args    map[string]any
}

// RecordingBridge is a NativeBridge that records every call with its
// JSON-decoded arguments.
type RecordingBridge struct {
	mu    sync.Mutex
	calls []RecordedCall
}

// InvokeMethod records the call and returns a null result.
func (b *RecordingBridge) InvokeMethod(channel, method string, argsData []byte) ([]byte, error) {
	var args map[string]any
	if len(argsData) > 0 {
		_ = json.Unmarshal(argsData, &args)
	}
	b.mu.Lock()
	b.calls = append(b.calls, RecordedCall{Channel: channel, Method: method, Args: args})
	b.mu.Unlock()
	return DefaultCodec.Encode(nil)
}

// Calls returns a copy of the recorded calls.
func (b *RecordingBridge) Calls() []RecordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// Methods returns the method names of the recorded calls, in order.
func (b *RecordingBridge) Methods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.Method
	}
	return out
}

// Reset clears the recorded calls.
func (b *RecordingBridge) Reset() {
	b.mu.Lock()
	b.calls = b.calls[:0]
	b.mu.Unlock()
}

// SetupRecordingBridge installs a RecordingBridge for the duration of a test.
func SetupRecordingBridge(cleanup func(func())) *RecordingBridge {
	b := &RecordingBridge{}
	SetNativeBridge(b)
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
	return b
}
