package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Macro is a #define body. Params is empty for object-like macros.
type Macro struct {
	Params []string
	Body   string
}

type preprocessor struct {
	defines map[string]Macro
	// seen holds every file already spliced in; including one again is a
	// no-op, which makes diamond includes work.
	seen map[string]bool
}

// Preprocess expands #include "file" and #define directives in src.
// Includes are resolved against baseDir first and the working directory
// second. Directive lines are replaced by empty lines, so line numbers in src
// stay valid until the first include.
func Preprocess(src string, baseDir string) (string, error) {
	pp := &preprocessor{
		defines: make(map[string]Macro),
		seen:    make(map[string]bool),
	}
	return pp.process(src, baseDir, "<input>", nil)
}

// process handles one file. stack lists the files currently being included,
// outermost first.
func (pp *preprocessor) process(src, dir, name string, stack []string) (string, error) {
	var out strings.Builder
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			out.WriteString(pp.expand(line, pp.defines, nil))
			out.WriteByte('\n')
			continue
		}

		directive, rest := trimmed[1:], ""
		if k := strings.IndexAny(directive, " \t"); k >= 0 {
			directive, rest = directive[:k], strings.TrimSpace(directive[k:])
		}
		switch directive {
		case "define":
			if err := pp.define(rest); err != nil {
				return "", fmt.Errorf("%s:%d: %w", name, i+1, err)
			}
			out.WriteByte('\n')
		case "include":
			text, err := pp.include(rest, dir, stack)
			if err != nil {
				return "", fmt.Errorf("%s:%d: %w", name, i+1, err)
			}
			out.WriteString(text)
			out.WriteByte('\n')
		default:
			return "", fmt.Errorf("%s:%d: unknown directive #%s", name, i+1, directive)
		}
	}
	return strings.TrimSuffix(out.String(), "\n"), nil
}

// define parses  NAME VALUE  or  NAME(a, b) VALUE.
func (pp *preprocessor) define(rest string) error {
	end := strings.IndexAny(rest, " \t(")
	if end < 0 {
		end = len(rest)
	}
	name := rest[:end]
	if name == "" {
		return fmt.Errorf("#define without a name")
	}
	rest = rest[end:]

	var params []string
	if strings.HasPrefix(rest, "(") {
		closing := strings.Index(rest, ")")
		if closing < 0 {
			return fmt.Errorf("unterminated parameter list in #define %s", name)
		}
		if list := strings.TrimSpace(rest[1:closing]); list != "" {
			for _, p := range strings.Split(list, ",") {
				params = append(params, strings.TrimSpace(p))
			}
		}
		rest = rest[closing+1:]
	}

	body := strings.TrimSpace(rest)
	if len(params) == 0 {
		body = pp.expand(body, pp.defines, nil)
	}
	pp.defines[name] = Macro{Params: params, Body: body}
	return nil
}

func (pp *preprocessor) include(rest, dir string, stack []string) (string, error) {
	parts := strings.SplitN(rest, `"`, 3)
	if len(parts) < 3 || parts[0] != "" {
		return "", fmt.Errorf("invalid #include %s", rest)
	}
	filename := parts[1]

	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := os.Stat(filename); err == nil {
			path = filename
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	for _, f := range stack {
		if f == abs {
			return "", fmt.Errorf("circular include of %s", filename)
		}
	}
	if pp.seen[abs] {
		return "", nil
	}
	pp.seen[abs] = true

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading included file %s: %w", filename, err)
	}
	return pp.process(string(content), filepath.Dir(path), filename, append(stack, abs))
}

// expand substitutes whole-word macro uses in line. String literals are
// copied untouched. Names in hide are being expanded further up and are left
// as they are, so a macro that mentions itself expands once.
func (pp *preprocessor) expand(line string, defines map[string]Macro, hide map[string]bool) string {
	if len(defines) == 0 {
		return line
	}
	src := []rune(line)
	var sb strings.Builder
	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case r == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(src) {
				j++
			}
			if j > len(src) {
				j = len(src)
			}
			sb.WriteString(string(src[i:j]))
			i = j

		case isIdentStart(r):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := string(src[i:j])
			m, ok := defines[word]
			switch {
			case !ok || hide[word]:
				sb.WriteString(word)
			case len(m.Params) == 0:
				sb.WriteString(m.Body)
			default:
				args, after, ok := macroArgs(src, j)
				if !ok || len(args) != len(m.Params) {
					sb.WriteString(word)
					break
				}
				// Arguments are expanded before substitution. Parameters are
				// substituted in one pass so an argument's text is never
				// rescanned for another parameter's name.
				bound := make(map[string]Macro, len(args))
				for k, p := range m.Params {
					bound[p] = Macro{Body: pp.expand(args[k], pp.defines, hide)}
				}
				inner := make(map[string]bool, len(hide)+1)
				for name := range hide {
					inner[name] = true
				}
				inner[word] = true
				sb.WriteString(pp.expand(pp.expand(m.Body, bound, nil), pp.defines, inner))
				j = after
			}
			i = j

		default:
			sb.WriteRune(r)
			i++
		}
	}
	return sb.String()
}

// macroArgs reads a parenthesised, comma separated argument list starting at
// src[i] (after optional blanks). It returns the index after ')'.
func macroArgs(src []rune, i int) ([]string, int, bool) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) || src[i] != '(' {
		return nil, i, false
	}
	i++
	var args []string
	var cur strings.Builder
	depth := 1
	for ; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				return args, i + 1, true
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(src[i])
	}
	return nil, i, false
}
