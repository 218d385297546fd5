package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
)

// ErrNoBrowser is returned when no Chrome/Chromium binary can be found.
var ErrNoBrowser = errors.New("no compatible browser found")

// ResolveOptions controls how a Chrome binary is located.
type ResolveOptions struct {
	Bin         string // explicit binary, skips lookup
	Download    bool   // fall back to downloading Chromium
	Revision    int    // Chromium revision to download (0 uses default)
	InstallDeps bool   // install OS packages before downloading
}

// ResolveChrome returns the path of a usable Chrome binary. It checks the
// explicit path, then the system lookup, and downloads only when allowed.
func ResolveChrome(ctx context.Context, opts ResolveOptions) (string, error) {
	if opts.Bin != "" {
		info, err := os.Stat(opts.Bin)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoBrowser, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrNoBrowser, opts.Bin)
		}
		return opts.Bin, nil
	}

	if path, has := lookPath(); has {
		return path, nil
	}

	if !opts.Download {
		return "", fmt.Errorf("%w: install Chrome/Chromium, pass -chrome-bin or enable -download-chrome", ErrNoBrowser)
	}

	if opts.InstallDeps {
		if err := InstallChromeDependencies(ctx); err != nil {
			return "", err
		}
	}

	return downloadChrome(ctx, opts.Revision)
}

// Swapped in tests.
var (
	lookPath       = launcher.LookPath
	lookCommand    = exec.LookPath
	runCommand     = execCommand
	downloadChrome = DownloadChrome
)

// DownloadChrome downloads a Chromium build for the current OS/arch.
func DownloadChrome(ctx context.Context, revision int) (string, error) {
	downloader := launcher.NewBrowser()
	downloader.Context = ctx
	if revision > 0 {
		downloader.Revision = revision
	}

	log.Printf("Downloading Chromium (revision %d)", downloader.Revision)
	path, err := downloader.Get()
	if err != nil {
		return "", fmt.Errorf("failed to download chrome: %w", err)
	}

	return path, nil
}

// packageManager installs Chromium's OS dependencies with one tool.
type packageManager struct {
	name    string
	refresh []string // run before install, if set
	install []string
	deps    []string
}

// packageManagers in order of preference.
var packageManagers = []packageManager{
	{name: "apt-get", refresh: []string{"update"}, install: []string{"install", "-y", "--no-install-recommends"}, deps: chromeDepsApt},
	{name: "dnf", install: []string{"install", "-y"}, deps: chromeDepsDnf},
	{name: "yum", install: []string{"install", "-y"}, deps: chromeDepsYum},
	{name: "apk", install: []string{"add", "--no-cache"}, deps: chromeDepsApk},
}

// InstallChromeDependencies installs OS packages required by Chromium
// with the first supported package manager on PATH. It is a no-op off Linux.
func InstallChromeDependencies(ctx context.Context) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	for _, pm := range packageManagers {
		path, _ := lookCommand(pm.name)
		if path == "" {
			continue
		}

		log.Printf("Installing Chromium dependencies with %s", pm.name)
		if len(pm.refresh) > 0 {
			if err := runCommand(ctx, path, pm.refresh...); err != nil {
				return err
			}
		}
		args := append(append([]string{}, pm.install...), pm.deps...)
		return runCommand(ctx, path, args...)
	}

	return fmt.Errorf("no supported package manager found for Chrome dependencies")
}

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v failed: %w\n%s", name, args, err, out.String())
	}
	return nil
}

var chromeDepsApt = []string{
	"ca-certificates",
	"fonts-liberation",
	"libasound2",
	"libatk-bridge2.0-0",
	"libatk1.0-0",
	"libcups2",
	"libdbus-1-3",
	"libdrm2",
	"libgbm1",
	"libgtk-3-0",
	"libnspr4",
	"libnss3",
	"libx11-xcb1",
	"libxcomposite1",
	"libxdamage1",
	"libxfixes3",
	"libxrandr2",
	"libxshmfence1",
	"libxss1",
	"libxtst6",
	"libpango-1.0-0",
	"libpangocairo-1.0-0",
	"libxkbcommon0",
}

var chromeDepsDnf = []string{
	"alsa-lib",
	"atk",
	"cups-libs",
	"gtk3",
	"libX11",
	"libXcomposite",
	"libXdamage",
	"libXrandr",
	"libXfixes",
	"libX11-xcb",
	"libxcb",
	"libxkbcommon",
	"libxshmfence",
	"nss",
	"nspr",
	"pango",
	"mesa-libgbm",
	"libdrm",
}

var chromeDepsYum = chromeDepsDnf

var chromeDepsApk = []string{
	"ca-certificates",
	"freetype",
	"harfbuzz",
	"nss",
	"ttf-freefont",
	"alsa-lib",
	"atk",
	"at-spi2-atk",
	"cups-libs",
	"libxcomposite",
	"libxdamage",
	"libxrandr",
	"libxfixes",
	"libxkbcommon",
	"libx11",
	"libxrender",
	"libxext",
	"libxcb",
	"libdrm",
	"mesa-gbm",
	"gtk+3.0",
	"pango",
	"cairo",
	"gdk-pixbuf",
	"fontconfig",
	"libstdc++",
	"libgcc",
}
