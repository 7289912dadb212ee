package cli

import (
	"bytes"
	"errors"
	"testing"
)

func TestMarkerLoggerBracketsMarker(t *testing.T) {
	var out bytes.Buffer
	log := markerLogger(&out)
	log("*", "Launching Chrome with profile: %s", "/data/chrome")
	log("console:error", "boom")

	want := "[*] Launching Chrome with profile: /data/chrome\n" +
		"[console:error] boom\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestSingleLineError(t *testing.T) {
	err := errors.New("parse failed:\n  line two")
	if got, want := singleLineError(err), "parse failed: line two"; got != want {
		t.Fatalf("singleLineError = %q, want %q", got, want)
	}
}
