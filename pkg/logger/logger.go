// Package logger writes the command's diagnostics to stderr. Library
// packages never log; only cmd/mlogc does.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level is the verbosity selected on the command line.
type Level int

const (
	// Quiet shows Info and Error only
	Quiet Level = iota
	// Verbose adds V messages (-v)
	Verbose
	// Debug adds VV messages and dumps (-vv)
	Debug
)

type Logger struct {
	level Level
	out   io.Writer
	mu    sync.Mutex
}

// New returns a logger writing to stderr.
func New(level Level) *Logger {
	return &Logger{level: level, out: os.Stderr}
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(level Level, w io.Writer) *Logger {
	return &Logger{level: level, out: w}
}

func (l *Logger) IsVerbose() bool { return l.level >= Verbose }

func (l *Logger) IsDebug() bool { return l.level >= Debug }

func (l *Logger) printf(prefix, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, prefix+format+"\n", args...)
}

// V logs at -v.
func (l *Logger) V(format string, args ...any) {
	if l.IsVerbose() {
		l.printf("[*] ", format, args...)
	}
}

// VV logs at -vv.
func (l *Logger) VV(format string, args ...any) {
	if l.IsDebug() {
		l.printf("[VV] ", format, args...)
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.printf("[+] ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.printf("[!] ", format, args...)
}

// Section starts a titled block at -vv.
func (l *Logger) Section(title string) {
	if l.IsDebug() {
		l.printf("", "\n[VV] === %s ===", title)
	}
}

// Dump writes a multi-line text under a section header at -vv, one prefixed
// line per input line.
func (l *Logger) Dump(title, text string) {
	if !l.IsDebug() {
		return
	}
	l.Section(title)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(l.out, "[VV]   %s\n", line)
	}
}
