package widgets

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// buildTree creates shell{left{a, b, c}, right{}} on an all-embedded display.
func buildTree(t *testing.T) (f *fixture, shell, left, right, a, b, c *Widget) {
	t.Helper()
	f = newFixture(t, WithRegistry(embeddedRegistry()))
	var err error
	shell, err = f.display.NewShell(StyleNone)
	require.NoError(t, err)
	left, err = Create(CompositeClass, shell, StyleNone)
	require.NoError(t, err)
	right, err = Create(CompositeClass, shell, StyleNone)
	require.NoError(t, err)
	a, err = Create(ButtonClass, left, StyleNone)
	require.NoError(t, err)
	b, err = Create(ButtonClass, left, StyleNone)
	require.NoError(t, err)
	c, err = Create(ButtonClass, left, StyleNone)
	require.NoError(t, err)
	f.flush(t)
	return
}

func TestSetParentMovesSubtree(t *testing.T) {
	f, shell, left, right, a, b, c := buildTree(t)
	inner, err := Create(LabelClass, right, StyleNone)
	require.NoError(t, err)
	f.flush(t)

	require.NoError(t, b.SetParent(right))
	assert.Equal(t, []*Widget{a, c}, left.Children(), "remaining order preserved")
	assert.Equal(t, []*Widget{inner, b}, right.Children(), "appended at the end")
	assert.Same(t, right, b.Parent())

	assert.True(t, f.isDirty(b))
	assert.True(t, f.isDirty(left))
	assert.True(t, f.isDirty(right))
	assert.False(t, f.isDirty(shell))

	require.NoError(t, left.SetParent(right))
	assert.Equal(t, []*Widget{right}, shell.Children())
	assert.Equal(t, []*Widget{inner, b, left}, right.Children())
	assert.Same(t, left, a.Parent(), "descendants travel with the subtree")
}

func TestSetParentErrorsLeaveTreeUnchanged(t *testing.T) {
	f, shell, left, right, a, b, _ := buildTree(t)
	gone, err := Create(CompositeClass, shell, StyleNone)
	require.NoError(t, err)
	require.NoError(t, gone.Dispose())
	f.flush(t)

	before := Describe(shell)

	assert.ErrorIs(t, left.SetParent(left), evolveerrors.ErrCycle)
	assert.ErrorIs(t, left.SetParent(a), evolveerrors.ErrCycle, "descendant target")
	assert.ErrorIs(t, shell.SetParent(right), evolveerrors.ErrInvalidArgument, "roots stay roots")
	assert.ErrorIs(t, a.SetParent(gone), evolveerrors.ErrDisposed)
	assert.ErrorIs(t, a.SetParent(gone), evolveerrors.ErrInvalidArgument)
	assert.ErrorIs(t, a.MoveAbove(gone), evolveerrors.ErrInvalidArgument)
	assert.ErrorIs(t, a.SetParent(b), evolveerrors.ErrInvalidArgument, "not a composite")
	assert.ErrorIs(t, a.SetParent(nil), evolveerrors.ErrInvalidArgument)
	assert.Equal(t, evolveerrors.KindCycle, evolveerrors.KindOf(left.SetParent(a)))

	assert.Equal(t, before, Describe(shell))
	assert.Zero(t, f.display.Bridge().Tracker().Len())

	require.NoError(t, a.SetParent(left), "same parent is a no-op")
	assert.Equal(t, a, left.Children()[0])
	assert.Zero(t, f.display.Bridge().Tracker().Len())
}

func TestSetParentAcrossDisplays(t *testing.T) {
	_, _, _, _, a, _, _ := buildTree(t)
	other, err := NewDisplay(WithTransport(bridge.NewMemoryTransport()))
	require.NoError(t, err)
	foreign, err := other.NewShell(StyleNone)
	require.NoError(t, err)
	assert.ErrorIs(t, a.SetParent(foreign), evolveerrors.ErrInvalidArgument)
}

func TestSetParentFlushesOneDocument(t *testing.T) {
	f, _, left, right, _, b, _ := buildTree(t)
	require.NoError(t, b.SetParent(right))
	f.transport.Reset()
	f.flush(t)

	assert.ElementsMatch(t, []string{left.String(), right.String()}, f.transport.Events(),
		"the moved child travels inside its new parent")
}

func TestMoveAboveAndBelow(t *testing.T) {
	f, _, left, right, a, b, c := buildTree(t)

	require.NoError(t, c.MoveAbove(a))
	assert.Equal(t, []*Widget{c, a, b}, left.Children())
	assert.True(t, f.isDirty(left))

	require.NoError(t, c.MoveBelow(b))
	assert.Equal(t, []*Widget{a, b, c}, left.Children())

	require.NoError(t, a.MoveBelow(nil))
	assert.Equal(t, []*Widget{b, c, a}, left.Children())

	require.NoError(t, a.MoveAbove(nil))
	assert.Equal(t, []*Widget{a, b, c}, left.Children())

	f.flush(t)
	require.NoError(t, a.MoveAbove(b), "already in place")
	assert.False(t, f.isDirty(left))

	assert.ErrorIs(t, a.MoveAbove(right), evolveerrors.ErrInvalidArgument)
}

func TestDisposeIsRecursive(t *testing.T) {
	f, shell, left, right, a, b, c := buildTree(t)
	require.NoError(t, a.SetText("dirty"))
	require.True(t, f.isDirty(a))
	eb := a.Backend().(*EmbeddedBackend)

	var disposed []string
	for _, w := range []*Widget{left, a, b, c} {
		_, err := w.AddListener("Dispose", func(ev Event) {
			disposed = append(disposed, ev.Widget.String())
		})
		require.NoError(t, err)
	}
	n := f.display.Len()

	require.NoError(t, left.Dispose())
	assert.Equal(t, []string{left.String(), a.String(), b.String(), c.String()}, disposed)
	assert.Equal(t, []*Widget{right}, shell.Children())
	assert.Equal(t, n-4, f.display.Len())
	assert.True(t, a.IsDisposed())
	assert.Nil(t, a.Parent())
	assert.False(t, f.display.Bridge().Tracker().IsDirty(eb), "removed from the dirty set")
	assert.True(t, f.isDirty(shell))

	_, found := f.display.Find(a.ID())
	assert.False(t, found)
	assert.ErrorIs(t, a.SetText("x"), evolveerrors.ErrDisposed)
	assert.ErrorIs(t, a.SetParent(right), evolveerrors.ErrDisposed)
	require.NoError(t, left.Dispose(), "second dispose is a no-op")
}

func TestDisposeNativeForwards(t *testing.T) {
	f := newFixture(t)
	shell, err := f.display.NewShell(StyleNone)
	require.NoError(t, err)
	_, err = Create(ButtonClass, shell, StyleNone)
	require.NoError(t, err)
	f.native.Reset()

	require.NoError(t, f.display.Dispose())
	assert.Equal(t, []string{"dispose", "dispose"}, f.native.Methods())
	assert.Empty(t, f.display.Roots())
	assert.True(t, f.display.IsDisposed())

	_, err = f.display.NewShell(StyleNone)
	assert.ErrorIs(t, err, evolveerrors.ErrDisposed)
}

func TestWrongThread(t *testing.T) {
	f := newFixture(t)
	shell, err := f.display.NewShell(StyleNone)
	require.NoError(t, err)

	errs := make(chan error, 4)
	go func() {
		errs <- shell.SetText("off thread")
		_, err := Create(ButtonClass, shell, StyleNone)
		errs <- err
		errs <- shell.Dispose()
		_, err = f.display.Flush(context.Background())
		errs <- err
	}()
	for range 4 {
		assert.ErrorIs(t, <-errs, evolveerrors.ErrWrongThread)
	}
	assert.Empty(t, shell.Children())
	assert.Equal(t, "", shell.Text())
}

func TestAsyncAndSyncExec(t *testing.T) {
	f := newFixture(t)
	d := f.display
	shell, err := d.NewShell(StyleNone)
	require.NoError(t, err)

	go d.AsyncExec(func() { _ = shell.SetText("async") })

	done := make(chan error, 1)
	go func() {
		done <- d.SyncExec(context.Background(), func() { _ = shell.SetVisible(false) })
	}()

	timeout := time.After(2 * time.Second)
	for finished := false; !finished; {
		select {
		case err := <-done:
			require.NoError(t, err)
			finished = true
		case <-d.Wake():
			_, err := d.RunPending()
			require.NoError(t, err)
		case <-timeout:
			t.Fatal("SyncExec never completed")
		}
	}
	deadline := time.Now().Add(time.Second)
	for shell.Text() != "async" && time.Now().Before(deadline) {
		_, err := d.RunPending()
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "async", shell.Text())
	assert.False(t, shell.Visible())

	ran := false
	require.NoError(t, d.SyncExec(context.Background(), func() { ran = true }), "runs inline on the UI goroutine")
	assert.True(t, ran)

	d.AsyncExec(func() { ran = false })
	assert.True(t, d.ReadAndDispatch())
	assert.False(t, d.ReadAndDispatch())
	assert.False(t, ran)
}

func TestQueuedPanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.display.AsyncExec(func() { panic("boom") })
	ran := false
	f.display.AsyncExec(func() { ran = true })

	n, err := f.display.RunPending()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, ran)
}

func TestClientReadyResendsEmbeddedRoots(t *testing.T) {
	f := newFixture(t)
	f.display.Registry().SetClassOverride("Composite", config.Embedded)
	shell, err := f.display.NewShell(StyleNone)
	require.NoError(t, err)
	comp, err := Create(CompositeClass, shell, StyleNone)
	require.NoError(t, err)
	_, err = Create(ButtonClass, comp, StyleNone)
	require.NoError(t, err)
	f.flush(t)
	f.transport.Reset()

	f.display.Bridge().HandleMessage(comp.String()+"/"+bridge.ClientReady, nil)
	_, err = f.display.RunPending()
	require.NoError(t, err)
	f.flush(t)

	assert.Equal(t, []string{config.FlagsEvent, comp.String()}, f.transport.Events())
}

func TestRunLoopFlushes(t *testing.T) {
	f := newFixture(t, WithRegistry(embeddedRegistry()))
	d := f.display
	shell, err := d.NewShell(StyleNone)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = d.SyncExec(context.Background(), func() { _ = shell.SetText("loop") })
		cancel()
	}()
	err = d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, _ = d.RunPending()
	_, _ = d.Flush(context.Background())
	require.NotEmpty(t, f.transport.Messages())
	var doc bridge.Document
	require.NoError(t, f.transport.Messages()[len(f.transport.Messages())-1].Decode(&doc))
	v, _ := doc.Prop("text")
	assert.Equal(t, "loop", v)
}
