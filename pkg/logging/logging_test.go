package logging

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixFormatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Info("TM265 USB Reset...")
	log.WithField("port", 3).Debug("Port 3 switched OFF")
	log.WithError(errors.New("pipe")).WithField("hub", "1d6b:0003 at usb2").Error("Failed to switch port OFF")
	log.Warn("Parent isn't classified as a hub")

	want := "INF: TM265 USB Reset...\n" +
		"DBG: Port 3 switched OFF port=3\n" +
		"ERR: Failed to switch port OFF error=pipe hub=1d6b:0003 at usb2\n" +
		"ERR: Parent isn't classified as a hub\n"
	if got := buf.String(); got != want {
		t.Errorf("log output:\n%s\nwant:\n%s", got, want)
	}
}

func TestDebugDisabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug("hidden")
	log.Info("shown")
	if got, want := buf.String(), "INF: shown\n"; got != want {
		t.Errorf("log output = %q, want %q", got, want)
	}
}
