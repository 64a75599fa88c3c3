package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func withTestWriter(c *qt.C, level string) *bytes.Buffer {
	buf := new(bytes.Buffer)
	testWriter = buf
	Init(level, testWriterName, nil)
	c.Cleanup(func() {
		testWriter = nil
		Init(LogLevelError, "stderr", nil)
	})
	return buf
}

func TestLevels(t *testing.T) {
	c := qt.New(t)
	buf := withTestWriter(c, LogLevelInfo)
	c.Assert(Level(), qt.Equals, LogLevelInfo)

	Debugw("hidden", "key", 1)
	c.Assert(buf.String(), qt.Equals, "")

	Infow("vote accepted", "candidate", 3, "seq", 7)
	out := buf.String()
	c.Assert(out, qt.Contains, "vote accepted")
	c.Assert(out, qt.Contains, "candidate=3")
	c.Assert(out, qt.Contains, "seq=7")
	c.Assert(out, qt.Contains, "log/log_test.go:")

	buf.Reset()
	Errorw(errors.New("boom"), "cast failed")
	c.Assert(buf.String(), qt.Contains, "boom")
	c.Assert(buf.String(), qt.Contains, "cast failed")
}

func TestMonitor(t *testing.T) {
	c := qt.New(t)
	buf := withTestWriter(c, LogLevelDebug)
	Monitor("tally", map[string]any{"votes": 10})
	line := buf.String()
	c.Assert(line, qt.Contains, "votes=10")
	c.Assert(strings.Contains(line, "log_test.go"), qt.IsFalse)
}

func TestErrorOutput(t *testing.T) {
	c := qt.New(t)
	errs := new(bytes.Buffer)
	testWriter = new(bytes.Buffer)
	Init(LogLevelDebug, testWriterName, errs)
	defer Init(LogLevelError, "stderr", nil)

	Info("just info")
	c.Assert(errs.String(), qt.Equals, "")
	Warn("careful")
	c.Assert(errs.String(), qt.Contains, "careful")
}

func TestInvalidLevel(t *testing.T) {
	c := qt.New(t)
	c.Assert(func() { Init("verbose", "stderr", nil) }, qt.PanicMatches, `invalid log level: "verbose"`)
}
