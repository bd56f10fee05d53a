package compiler

import (
	"fmt"

	"mlogc/pkg/asm"
)

// Result holds what each stage of Compile produced. On error the fields of
// the stages that finished are still set.
type Result struct {
	Source   string // preprocessed source
	Tokens   []Token
	Program  *Program
	Code     string       // generated mlog with labels
	Assembly *asm.Program // Code after label resolution
}

// Compile runs the whole pipeline: preprocess, lex, parse, generate, and
// finally assemble the output as a consistency check. Errors are returned
// unwrapped from the stage that produced them so callers can errors.As them.
func Compile(src string, baseDir string, opts Options) (*Result, error) {
	res := &Result{}

	var err error
	res.Source, err = Preprocess(src, baseDir)
	if err != nil {
		return res, err
	}

	res.Tokens, err = Lex(res.Source)
	if err != nil {
		return res, err
	}

	res.Program, err = Parse(res.Tokens)
	if err != nil {
		return res, err
	}

	res.Code, err = Generate(res.Program, opts)
	if err != nil {
		return res, err
	}

	res.Assembly, err = asm.Assemble(res.Code)
	if err != nil {
		return res, fmt.Errorf("assembly error: %w", err)
	}
	return res, nil
}

// CompileString compiles src without include support beyond the working
// directory and returns only the generated mlog.
func CompileString(src string) (string, error) {
	res, err := Compile(src, ".", Options{})
	if err != nil {
		return "", err
	}
	return res.Code, nil
}
