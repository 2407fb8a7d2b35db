package platform

import (
	"sync"

	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// NativeBridge is implemented by the toolkit host.
type NativeBridge interface {
	InvokeMethod(channel, method string, args []byte) ([]byte, error)
}

// channelTable maps channel names to their registered channel.
type channelTable struct {
	mu     sync.RWMutex
	byName map[string]*MethodChannel
}

func (t *channelTable) put(ch *MethodChannel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, taken := t.byName[ch.name]; taken {
		return false
	}
	if t.byName == nil {
		t.byName = make(map[string]*MethodChannel)
	}
	t.byName[ch.name] = ch
	return true
}

func (t *channelTable) remove(ch *MethodChannel) {
	t.mu.Lock()
	if t.byName[ch.name] == ch {
		delete(t.byName, ch.name)
	}
	t.mu.Unlock()
}

func (t *channelTable) get(name string) (*MethodChannel, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ch, ok := t.byName[name]
	return ch, ok
}

func (t *channelTable) clear() {
	t.mu.Lock()
	t.byName = nil
	t.mu.Unlock()
}

var (
	channels channelTable

	hostMu sync.RWMutex
	host   NativeBridge
)

// SetNativeBridge installs the toolkit host. nil detaches it, after which
// Invoke fails with ErrPlatformUnavailable.
func SetNativeBridge(b NativeBridge) {
	hostMu.Lock()
	host = b
	hostMu.Unlock()
}

func nativeHost() NativeBridge {
	hostMu.RLock()
	defer hostMu.RUnlock()
	return host
}

func invokeNative(channel, method string, args any) (any, error) {
	b := nativeHost()
	if b == nil {
		return nil, ErrPlatformUnavailable
	}
	payload, err := DefaultCodec.Encode(args)
	if err != nil {
		return nil, err
	}
	reply, err := b.InvokeMethod(channel, method, payload)
	if err != nil {
		evolveerrors.Report(&evolveerrors.EvolveError{
			Op:   "platform.Invoke",
			Kind: evolveerrors.KindTransport,
			Err:  err,
		})
		return nil, err
	}
	return DefaultCodec.Decode(reply)
}

// HandleMethodCall delivers a call from the toolkit host to the channel
// registered under channel and returns the encoded result.
func HandleMethodCall(channel, method string, args []byte) ([]byte, error) {
	ch, ok := channels.get(channel)
	if !ok {
		return nil, ErrChannelNotFound
	}
	decoded, err := DefaultCodec.Decode(args)
	if err != nil {
		return nil, err
	}
	result, err := ch.receive(method, decoded)
	if err != nil {
		return nil, err
	}
	return DefaultCodec.Encode(result)
}

// ResetForTest detaches the bridge and dispatcher and forgets every channel.
func ResetForTest() {
	SetNativeBridge(nil)
	RegisterDispatch(nil)
	channels.clear()
}
