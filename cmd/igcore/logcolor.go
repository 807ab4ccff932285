package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// colorWriter prefixes every write with an ANSI color code and resets it
// afterward, but only when the underlying file descriptor is a real
// terminal; piping igcore's output to a file or another process gets plain
// text.
type colorWriter struct {
	w     io.Writer
	color string
	plain bool
}

const (
	colorDim = "\x1b[2m"
	colorOff = "\x1b[0m"
)

func newLogWriter(f *os.File) io.Writer {
	return &colorWriter{w: f, color: colorDim, plain: !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())}
}

func (c *colorWriter) Write(p []byte) (int, error) {
	if c.plain {
		return c.w.Write(p)
	}
	if _, err := io.WriteString(c.w, c.color); err != nil {
		return 0, err
	}
	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := io.WriteString(c.w, colorOff); err != nil {
		return n, err
	}
	return n, nil
}
