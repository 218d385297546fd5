package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

type chromeTab struct {
	page *rod.Page
}

// Navigate loads url and waits for the load event.
func (t *chromeTab) Navigate(ctx context.Context, url string) error {
	page := t.page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}

	return nil
}

// WaitVisible blocks until selector matches a visible element.
func (t *chromeTab) WaitVisible(ctx context.Context, selector string) error {
	element, err := t.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}

	if err := element.WaitVisible(); err != nil {
		return fmt.Errorf("element not visible: %s: %w", selector, err)
	}

	return nil
}

// WaitStable blocks until requests and DOM have been quiet for window.
func (t *chromeTab) WaitStable(ctx context.Context, window time.Duration) error {
	if err := t.page.Context(ctx).WaitStable(window); err != nil {
		return fmt.Errorf("page did not stabilize: %w", err)
	}
	return nil
}

// Screenshot captures the current viewport as PNG.
func (t *chromeTab) Screenshot(ctx context.Context) ([]byte, error) {
	screenshot, err := t.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}

	return screenshot, nil
}
