package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChannel(t *testing.T, name string) *MethodChannel {
	t.Helper()
	ch, err := NewMethodChannel(name)
	require.NoError(t, err)
	return ch
}

func TestInvokeWithoutBridge(t *testing.T) {
	t.Cleanup(ResetForTest)
	ch := newChannel(t, "test/none")
	_, err := ch.Invoke("create", nil)
	assert.ErrorIs(t, err, ErrPlatformUnavailable)
}

func TestInvokeRecordsArguments(t *testing.T) {
	bridge := SetupRecordingBridge(t.Cleanup)
	ch := newChannel(t, "evolve/native")

	_, err := ch.Invoke("set", map[string]any{"id": 4, "property": "text", "value": "OK"})
	require.NoError(t, err)

	calls := bridge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "evolve/native", calls[0].Channel)
	assert.Equal(t, "set", calls[0].Method)
	assert.Equal(t, "text", calls[0].Args["property"])
	assert.Equal(t, float64(4), calls[0].Args["id"])
}

func TestHandleMethodCall(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	ch := newChannel(t, "evolve/native")
	ch.SetHandler(func(method string, args any) (any, error) {
		if method != "echo" {
			return nil, ErrMethodNotFound
		}
		return args, nil
	})

	out, err := HandleMethodCall("evolve/native", "echo", []byte(`{"a":1}`))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(1), decoded["a"])

	_, err = HandleMethodCall("evolve/native", "missing", nil)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = HandleMethodCall("nope", "echo", nil)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestHandleMethodCallWithoutHandler(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	newChannel(t, "evolve/bare")
	_, err := HandleMethodCall("evolve/bare", "anything", nil)
	assert.True(t, errors.Is(err, ErrMethodNotFound))
}

func TestDispatch(t *testing.T) {
	t.Cleanup(ResetForTest)
	assert.False(t, Dispatch(func() {}), "no dispatch registered")

	var queued []func()
	RegisterDispatch(func(cb func()) { queued = append(queued, cb) })

	ran := false
	assert.True(t, Dispatch(func() { ran = true }))
	assert.False(t, Dispatch(nil))
	require.Len(t, queued, 1)
	queued[0]()
	assert.True(t, ran)
}

func TestChannelErrorString(t *testing.T) {
	assert.Equal(t, "E1: bad", NewChannelError("E1", "bad").Error())
	assert.Equal(t, "E2", NewChannelError("E2", "").Error())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", NewChannelError("E1", "bad")), NewChannelError("E1", "other"))
	assert.NotErrorIs(t, NewChannelError("E1", "bad"), NewChannelError("E2", "bad"))
}

func TestCodec(t *testing.T) {
	v, err := DefaultCodec.Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = DefaultCodec.Decode([]byte(`{`))
	assert.ErrorContains(t, err, "platform: decode")

	_, err = DefaultCodec.Encode(func() {})
	assert.ErrorContains(t, err, "platform: encode func()")
}

func TestRegisterDispatchNil(t *testing.T) {
	t.Cleanup(ResetForTest)
	RegisterDispatch(func(cb func()) { cb() })
	RegisterDispatch(nil)
	assert.False(t, Dispatch(func() {}))
}

func TestChannelNamesAreExclusive(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	first := newChannel(t, "evolve/dup")
	first.SetHandler(func(string, any) (any, error) { return "first", nil })

	_, err := NewMethodChannel("evolve/dup")
	assert.ErrorIs(t, err, ErrChannelInUse)

	out, err := HandleMethodCall("evolve/dup", "who", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"first"`, string(out))

	first.Close()
	first.Close()
	_, err = HandleMethodCall("evolve/dup", "who", nil)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	second := newChannel(t, "evolve/dup")
	second.SetHandler(func(string, any) (any, error) { return "second", nil })
	first.Close()
	out, err = HandleMethodCall("evolve/dup", "who", nil)
	require.NoError(t, err, "closing a released channel leaves the new holder alone")
	assert.JSONEq(t, `"second"`, string(out))

	second.SetHandler(nil)
	_, err = HandleMethodCall("evolve/dup", "who", nil)
	assert.ErrorIs(t, err, ErrMethodNotFound)
}
