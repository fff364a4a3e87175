package iocli

//go:generate moq -out io_mock.go . IO

// IO is the terminal the CLI writes to.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	Write(p []byte) (n int, err error)
	// IsTerminal reports whether output goes to an interactive terminal
	IsTerminal() bool
}
