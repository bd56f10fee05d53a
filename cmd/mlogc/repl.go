package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"mlogc/pkg/compiler"
	"mlogc/pkg/logger"
)

const (
	promptMain  = "mlogc> "
	promptCont  = "  ...> "
	historyFile = ".mlogc_history"
)

const replHelp = `Enter globals and functions; the session is recompiled after each entry.
  :show   print the session source
  :reset  forget the session
  :quit   leave`

// session accumulates the declarations entered so far.
type session struct {
	opts    compiler.Options
	entries []string
}

func (s *session) source(extra string) string {
	return strings.Join(append(append([]string{}, s.entries...), extra), "\n")
}

// add compiles the session with entry appended. The entry is kept only if
// the result parses and generates. While the entry function is still
// missing, the declarations are checked on their own instead.
func (s *session) add(entry string) (string, error) {
	src := s.source(entry)
	tokens, err := compiler.Lex(src)
	if err != nil {
		return "", compiler.RenderError(err, "", src)
	}
	prog, err := compiler.Parse(tokens)
	if err != nil {
		return "", compiler.RenderError(err, "", src)
	}

	if _, ok := prog.Functions[s.entryName()]; !ok {
		if err := compiler.Check(prog); err != nil {
			return "", err
		}
		s.entries = append(s.entries, entry)
		return "", nil
	}

	code, err := compiler.Generate(prog, s.opts)
	if err != nil {
		return "", err
	}
	s.entries = append(s.entries, entry)
	return code, nil
}

func (s *session) entryName() string {
	if s.opts.Entry == "" {
		return "main"
	}
	return s.opts.Entry
}

// needsMore reports whether src stops in the middle of a declaration.
func needsMore(src string) bool {
	tokens, err := compiler.Lex(src)
	if err != nil {
		return false
	}
	_, err = compiler.Parse(tokens)
	return compiler.IsIncomplete(err)
}

func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}

func repl(opts compiler.Options, stdout io.Writer, log *logger.Logger) int {
	fmt.Fprintln(stdout, replHelp)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{opts: opts}
	for {
		entry, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(entry)
		switch trimmed {
		case "":
			continue
		case ":quit":
			return 0
		case ":reset":
			s.entries = nil
			continue
		case ":show":
			fmt.Fprintln(stdout, s.source(""))
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			fmt.Fprintln(stdout, "unknown command. Type :quit to exit.")
			continue
		}

		code, err := s.add(entry)
		if err != nil {
			log.Error("%v", err)
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		if code == "" {
			log.V("no %s() yet", s.entryName())
			continue
		}
		fmt.Fprint(stdout, code)
	}
}
