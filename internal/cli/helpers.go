package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bcaptain404/EtsyScraper/internal/capture"
	"github.com/bcaptain404/EtsyScraper/internal/config"
	"github.com/fatih/color"
)

var (
	colorStep  = color.New(color.FgCyan).SprintFunc()
	colorSaved = color.New(color.FgGreen).SprintFunc()
	colorDone  = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorAlert = color.New(color.FgYellow, color.Bold).SprintFunc()
	colorWarn  = color.New(color.FgHiRed).SprintFunc()
	colorTrace = color.New(color.FgHiBlack).SprintFunc()
	colorFrame = color.New(color.FgMagenta).SprintFunc()
	colorNote  = color.New(color.FgBlue).SprintFunc()
)

// paintMarker colors the bracket tag on a progress line. Unknown markers
// pass through unpainted.
func paintMarker(marker string) string {
	switch marker {
	case "[*]":
		return colorStep(marker)
	case "[+]":
		return colorSaved(marker)
	case "[✓]":
		return colorDone(marker)
	case "[!]":
		return colorAlert(marker)
	case "[warn]":
		return colorWarn(marker)
	case "[net]":
		return colorTrace(marker)
	case "[i]":
		return colorNote(marker)
	}
	if strings.HasPrefix(marker, "[page") || strings.HasPrefix(marker, "[nav") ||
		strings.HasPrefix(marker, "[reqfail") || strings.HasPrefix(marker, "[console:") {
		return colorFrame(marker)
	}
	return marker
}

// markerLogger adapts a command writer into the capture progress callback,
// bracketing the bare marker the way every other progress line is tagged.
func markerLogger(w io.Writer) capture.Logger {
	return func(marker, format string, args ...any) {
		logf(w, "["+marker+"]", format, args...)
	}
}

func logf(w io.Writer, marker, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paintMarker(marker), fmt.Sprintf(format, args...))
}

// loadConfig resolves the effective configuration: the explicit --config
// path when given, else discovery from the working directory.
func loadConfig(explicit string) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	cfg, _, err := config.Discover(explicit, wd)
	return cfg, err
}

func singleLineError(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
