package fixture

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Options configures the fixture page
type Options struct {
	AppName     string
	RenderDelay time.Duration // delay before the script fills #app
	Quiet       bool          // skip request logging
}

// ErrorHandler is the custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Error:   err.Error(),
	})
}

// New builds the fixture app: a page whose #app element is rendered by
// script after RenderDelay, plus a health check.
func New(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if !opts.Quiet {
		app.Use(logger.New())
	}
	app.Use(HeadersMiddleware())

	page := renderPage(opts.AppName)
	script := renderScript(opts.RenderDelay)

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(page)
	})

	app.Get("/app.js", func(c *fiber.Ctx) error {
		c.Type("js", "utf-8")
		return c.SendString(script)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(Response{
			Success: true,
			Data: map[string]interface{}{
				"status":    "ok",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no route for %s %s", c.Method(), c.Path()))
	})

	return app
}

func renderPage(title string) string {
	if title == "" {
		title = "fixture"
	}
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { margin: 0; font-family: sans-serif; background: #f4f4f5; }
header { background: #18181b; color: #fafafa; padding: 16px 24px; }
#app { padding: 24px; }
.card { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.2); }
</style>
</head>
<body>
<header>%s</header>
<main id="app" hidden></main>
<script src="/app.js"></script>
</body>
</html>
`, title, title)
}

func renderScript(delay time.Duration) string {
	return fmt.Sprintf(`setTimeout(function () {
  var app = document.getElementById("app");
  app.innerHTML = '<div class="card"><h1>Rendered</h1><p>' + new Date().toISOString() + '</p></div>';
  app.hidden = false;
}, %d);
`, delay.Milliseconds())
}
