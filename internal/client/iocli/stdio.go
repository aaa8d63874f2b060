package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio читает из in и пишет в out. Если in терминал, пароль читается без эха.
type Stdio struct {
	in     *bufio.Reader
	out    io.Writer
	termFd int
}

// NewStdio создает IO поверх переданных потоков (обычно cmd.InOrStdin/OutOrStdout)
func NewStdio(in io.Reader, out io.Writer) IO {
	s := &Stdio{in: bufio.NewReader(in), out: out, termFd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.termFd = int(f.Fd())
	}
	return s
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if s.termFd < 0 {
		return s.readLine()
	}

	pw, err := term.ReadPassword(s.termFd)
	s.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// readLine читает строку; последняя строка без перевода строки тоже допустима
func (s *Stdio) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
