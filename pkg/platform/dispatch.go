package platform

import "sync/atomic"

type dispatcher func(callback func())

var uiDispatch atomic.Pointer[dispatcher]

// RegisterDispatch installs the function that moves toolkit callbacks onto
// the UI goroutine. A Display created with widgets.WithPlatformDispatch
// registers its AsyncExec. nil unregisters.
func RegisterDispatch(fn func(callback func())) {
	if fn == nil {
		uiDispatch.Store(nil)
		return
	}
	d := dispatcher(fn)
	uiDispatch.Store(&d)
}

// Dispatch hands callback to the registered dispatcher. It reports false,
// without running callback, when nothing is registered or callback is nil.
func Dispatch(callback func()) bool {
	d := uiDispatch.Load()
	if d == nil || callback == nil {
		return false
	}
	(*d)(callback)
	return true
}
