package platform

import (
	"fmt"
	"sync"
)

// Handler answers a call the native side makes into Go.
type Handler func(method string, args any) (any, error)

// MethodChannel is a named, bidirectional call path to the toolkit host.
// Outbound calls go through Invoke; inbound calls reach the Handler.
type MethodChannel struct {
	name string

	mu      sync.RWMutex
	handler Handler
}

// NewMethodChannel creates a channel and registers it for inbound calls.
// It fails with ErrChannelInUse while another channel holds name.
func NewMethodChannel(name string) (*MethodChannel, error) {
	ch := &MethodChannel{name: name}
	if !channels.put(ch) {
		return nil, fmt.Errorf("%w: %s", ErrChannelInUse, name)
	}
	return ch, nil
}

// Close releases the channel's name. Inbound calls to it then fail with
// ErrChannelNotFound. Close is idempotent.
func (c *MethodChannel) Close() {
	channels.remove(c)
}

func (c *MethodChannel) Name() string { return c.name }

// SetHandler installs h for inbound calls. nil makes every inbound call
// fail with ErrMethodNotFound.
func (c *MethodChannel) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Invoke sends method to the toolkit host and waits for its decoded reply.
func (c *MethodChannel) Invoke(method string, args any) (any, error) {
	return invokeNative(c.name, method, args)
}

func (c *MethodChannel) receive(method string, args any) (any, error) {
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		return nil, ErrMethodNotFound
	}
	return h(method, args)
}
