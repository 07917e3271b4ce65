package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// browserCommand returns the program and arguments that open url on goos.
//
// A non-empty browser (usually $BROWSER) takes precedence over the platform opener.
func browserCommand(goos, browser, url string) (string, []string, error) {
	if browser != "" {
		return browser, []string{url}, nil
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens url in the user's browser for the CLI login.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), url)
	if err != nil {
		return err
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
