// Package logging sets up logrus for line-oriented console output.
//
// Each line starts with a three letter severity tag:
//
//	INF: Found target 03e7:2150 at 1-3
//	ERR: Failed to open hub - permissions? hub=1d6b:0003 at usb2 port=3
//	DBG: Port 3 switched OFF
package logging

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// PrefixFormatter renders entries as "TAG: message key=value ..."
type PrefixFormatter struct{}

func prefix(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return "DBG"
	case logrus.InfoLevel:
		return "INF"
	default:
		return "ERR"
	}
}

// Format implements logrus.Formatter
func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s: %s", prefix(entry.Level), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// New returns a logger writing to w. Debug lines are shown only when debug
// is set.
func New(w io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&PrefixFormatter{})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
