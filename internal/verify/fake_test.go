package verify

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ahrdadan/shotcheck/internal/browser"
)

// recorder collects lifecycle calls across fakes in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeEngine struct {
	rec       *recorder
	launchErr error
	instance  *fakeInstance
	closed    bool
}

func (e *fakeEngine) Launch(ctx context.Context) (browser.Instance, error) {
	e.rec.add("launch")
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	return e.instance, nil
}

func (e *fakeEngine) Close() error {
	e.rec.add("driver.close")
	e.closed = true
	return nil
}

type fakeInstance struct {
	rec    *recorder
	tabErr error
	tab    *fakeTab
	closed bool
}

func (i *fakeInstance) NewTab(ctx context.Context) (browser.Tab, error) {
	i.rec.add("newtab")
	if i.tabErr != nil {
		return nil, i.tabErr
	}
	return i.tab, nil
}

func (i *fakeInstance) PID() int { return 4242 }

func (i *fakeInstance) Close() error {
	i.rec.add("browser.close")
	i.closed = true
	return nil
}

type fakeTab struct {
	rec *recorder

	navErr   error
	navBlock bool // block until ctx is done
	visible  func(ctx context.Context, selector string) error
	stable   func(ctx context.Context, window time.Duration) error
	shot     []byte
	shotErr  error

	navigatedTo string
}

func (t *fakeTab) Navigate(ctx context.Context, url string) error {
	t.rec.add("navigate")
	t.navigatedTo = url
	if t.navBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	return t.navErr
}

func (t *fakeTab) WaitVisible(ctx context.Context, selector string) error {
	t.rec.add("wait.visible")
	if t.visible == nil {
		return nil
	}
	return t.visible(ctx, selector)
}

func (t *fakeTab) WaitStable(ctx context.Context, window time.Duration) error {
	t.rec.add("wait.stable")
	if t.stable == nil {
		return nil
	}
	return t.stable(ctx, window)
}

func (t *fakeTab) Screenshot(ctx context.Context) ([]byte, error) {
	t.rec.add("screenshot")
	return t.shot, t.shotErr
}

// newFakes wires an engine, instance and tab that succeed by default.
func newFakes(t *testing.T) (*fakeEngine, *fakeTab, *recorder) {
	t.Helper()
	rec := &recorder{}
	tab := &fakeTab{rec: rec, shot: testPNG(t, 1280, 720)}
	instance := &fakeInstance{rec: rec, tab: tab}
	engine := &fakeEngine{rec: rec, instance: instance}
	return engine, tab, rec
}

func factoryFor(engine *fakeEngine) EngineFactory {
	return func(ctx context.Context) (browser.Engine, error) {
		engine.rec.add("driver.open")
		return engine, nil
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}
