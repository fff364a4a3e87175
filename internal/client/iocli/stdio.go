package iocli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

type Stdio struct {
	out io.Writer
	tty bool
}

// NewStdio writes to os.Stdout.
func NewStdio() IO {
	return &Stdio{out: os.Stdout, tty: term.IsTerminal(int(os.Stdout.Fd()))}
}

// NewWriter writes to w. tty controls IsTerminal.
func NewWriter(w io.Writer, tty bool) IO {
	return &Stdio{out: w, tty: tty}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) IsTerminal() bool {
	return s.tty
}
