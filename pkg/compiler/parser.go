package compiler

import (
	"fmt"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// Program.
//
// Every parse* method is a backtracking production: it records the cursor on
// entry and restores it when it fails, so tokens are consumed only on
// success. Composite productions (program items, statements, expressions)
// try their alternatives in a fixed order and keep the first that matches.
//
//	program       = (global_var | function)*
//	global_var    = "let" IDENT
//	function      = ["inline"] "fn" IDENT "(" (IDENT ("," IDENT)*)? ")" block
//	block         = "{" statement* "}"
//	statement     = local_var | assignment | expr_stmt | if_stmt | while_stmt | return_stmt
//	local_var     = "let" IDENT
//	assignment    = IDENT "=" expression
//	if_stmt       = "if" expression block ("else" block)?
//	while_stmt    = "while" expression block
//	return_stmt   = "return" expression?
//	expr_stmt     = expression
//	expression    = function_call | STRING | NUMBER | IDENT
//	function_call = IDENT "(" (expression ("," expression)*)? ")"
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position,
// or an EOF token positioned just after the last real token.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset < len(p.tokens) {
		return p.tokens[p.pos+offset]
	}
	eof := Token{Type: EOF}
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		eof.Line, eof.Col = last.Line, last.Col+len([]rune(last.Lexeme))
	}
	return eof
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// errorAt builds a ParseError positioned at tok. Failing on the EOF
// sentinel marks the error incomplete.
func (p *Parser) errorAt(tok Token, format string, args ...any) *ParseError {
	return &ParseError{
		Msg:        fmt.Sprintf(format, args...),
		Line:       tok.Line,
		Col:        tok.Col,
		Incomplete: tok.Type == EOF,
	}
}

// expect consumes the current token if it matches tt.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorAt(tok, "expected %s, got %s", what, tok.describe())
	}
	return p.advance(), nil
}

// backtrack restores the cursor to start when *err is set. Productions defer
// it right after recording their start position.
func (p *Parser) backtrack(start int, err *error) {
	if *err != nil {
		p.pos = start
	}
}

// firstOf tries each alternative in order from the same start position and
// returns the first success. When all fail, the returned error lists every
// alternative's message.
func firstOf[T any](p *Parser, what string, alts ...func() (T, error)) (T, error) {
	start := p.pos
	startTok := p.peek()
	msgs := make([]string, 0, len(alts))
	incomplete := false
	for _, alt := range alts {
		v, err := alt()
		if err == nil {
			return v, nil
		}
		p.pos = start
		msgs = append(msgs, err.Error())
		if IsIncomplete(err) {
			incomplete = true
		}
	}
	var zero T
	pe := p.errorAt(startTok, "invalid %s: %s", what, strings.Join(msgs, "; "))
	pe.Incomplete = incomplete
	return zero, pe
}

// parseGlobalVar parses  let IDENT  at the top level.
func (p *Parser) parseGlobalVar() (_ *GlobalVar, err error) {
	defer p.backtrack(p.pos, &err)
	if _, err := p.expect(LET, "'let'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "global variable name")
	if err != nil {
		return nil, err
	}
	return &GlobalVar{Name: name.Lexeme}, nil
}

// parseFunction parses  [inline] fn IDENT ( params ) block
func (p *Parser) parseFunction() (_ *Function, err error) {
	defer p.backtrack(p.pos, &err)

	style := Normal
	if p.peek().Type == INLINE {
		p.advance()
		style = Inline
	}
	if _, err := p.expect(FN, "'fn'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &Function{Name: name.Lexeme, Params: params, Body: body, Style: style}, nil
}

// parseParams parses  ( IDENT , IDENT ... )  rejecting repeated names.
func (p *Parser) parseParams() (_ []string, err error) {
	defer p.backtrack(p.pos, &err)

	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []string
	if p.peek().Type == RPAREN {
		p.advance()
		return params, nil
	}
	seen := make(map[string]bool)
	for {
		tok, err := p.expect(IDENTIFIER, "parameter name")
		if err != nil {
			return nil, err
		}
		if seen[tok.Lexeme] {
			return nil, p.errorAt(tok, "duplicate parameter %q", tok.Lexeme)
		}
		seen[tok.Lexeme] = true
		params = append(params, tok.Lexeme)

		switch next := p.peek(); next.Type {
		case COMMA:
			p.advance()
		case RPAREN:
			p.advance()
			return params, nil
		default:
			return nil, p.errorAt(next, "expected ',' or ')' in parameter list, got %s", next.describe())
		}
	}
}

// parseBlock parses  { statement* }
func (p *Parser) parseBlock() (_ []Stmt, err error) {
	defer p.backtrack(p.pos, &err)

	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.peek().Type != RBRACE {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // }
	return stmts, nil
}

// parseStatement tries every statement form. IDENT '=' commits to an
// assignment: a bad right-hand side fails the statement instead of falling
// back to an expression statement.
func (p *Parser) parseStatement() (Stmt, error) {
	if p.peek().Type == IDENTIFIER && p.peekAt(1).Type == ASSIGN {
		return p.parseAssignment()
	}
	return firstOf(p, "statement",
		p.parseLocalVar,
		p.parseAssignment,
		p.parseExprStmt,
		p.parseIf,
		p.parseWhile,
		p.parseReturn,
	)
}

// parseLocalVar parses  let IDENT  inside a block.
func (p *Parser) parseLocalVar() (_ Stmt, err error) {
	defer p.backtrack(p.pos, &err)
	if _, err := p.expect(LET, "'let'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "local variable name")
	if err != nil {
		return nil, err
	}
	return &LocalVarDecl{Name: name.Lexeme}, nil
}

// parseAssignment parses  IDENT = expression
func (p *Parser) parseAssignment() (_ Stmt, err error) {
	defer p.backtrack(p.pos, &err)
	if p.peek().Type != IDENTIFIER || p.peekAt(1).Type != ASSIGN {
		return nil, p.errorAt(p.peek(), "expected assignment")
	}
	target := p.advance()
	p.advance() // =
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assignment{Target: target.Lexeme, Value: value}, nil
}

func (p *Parser) parseExprStmt() (Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// parseIf parses  if expression block [else block]
func (p *Parser) parseIf() (_ Stmt, err error) {
	defer p.backtrack(p.pos, &err)
	if _, err := p.expect(IF, "'if'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock []Stmt
	if p.peek().Type == ELSE {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Condition: cond, Then: then, Else: elseBlock}, nil
}

// parseWhile parses  while expression block
func (p *Parser) parseWhile() (_ Stmt, err error) {
	defer p.backtrack(p.pos, &err)
	if _, err := p.expect(WHILE, "'while'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Condition: cond, Body: body}, nil
}

// parseReturn parses  return [expression]. There are no statement
// terminators, so a value is only read when the next token can start an
// expression and is not the target of an assignment.
func (p *Parser) parseReturn() (_ Stmt, err error) {
	defer p.backtrack(p.pos, &err)
	if _, err := p.expect(RETURN, "'return'"); err != nil {
		return nil, err
	}
	next := p.peek()
	startsValue := next.Type == NUMBER || next.Type == STRING ||
		(next.Type == IDENTIFIER && p.peekAt(1).Type != ASSIGN)
	if !startsValue {
		return &ReturnStmt{}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value}, nil
}

// parseExpression tries a call before a bare variable reference; the '('
// after the identifier tells them apart.
func (p *Parser) parseExpression() (Expr, error) {
	return firstOf(p, "expression",
		p.parseFunctionCall,
		p.parseStringLiteral,
		p.parseNumberLiteral,
		p.parseVarRef,
	)
}

// parseFunctionCall parses  IDENT ( expression , ... )
func (p *Parser) parseFunctionCall() (_ Expr, err error) {
	defer p.backtrack(p.pos, &err)
	if p.peek().Type != IDENTIFIER || p.peekAt(1).Type != LPAREN {
		return nil, p.errorAt(p.peek(), "expected function call")
	}
	name := p.advance()
	p.advance() // (

	call := &FunctionCall{Name: name.Lexeme}
	if p.peek().Type == RPAREN {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		switch next := p.peek(); next.Type {
		case COMMA:
			p.advance()
		case RPAREN:
			p.advance()
			return call, nil
		default:
			return nil, p.errorAt(next, "expected ',' or ')' after argument to %s, got %s", name.Lexeme, next.describe())
		}
	}
}

func (p *Parser) parseStringLiteral() (Expr, error) {
	tok, err := p.expect(STRING, "string literal")
	if err != nil {
		return nil, err
	}
	return &StringLiteral{Value: tok.Lexeme}, nil
}

func (p *Parser) parseNumberLiteral() (Expr, error) {
	tok, err := p.expect(NUMBER, "number literal")
	if err != nil {
		return nil, err
	}
	return &NumberLiteral{Value: tok.Number}, nil
}

func (p *Parser) parseVarRef() (Expr, error) {
	tok, err := p.expect(IDENTIFIER, "variable name")
	if err != nil {
		return nil, err
	}
	return &VarRef{Name: tok.Lexeme}, nil
}

// programItem is one top-level declaration; exactly one field is set.
type programItem struct {
	global *GlobalVar
	fn     *Function
}

func (p *Parser) parseProgramItem() (programItem, error) {
	return firstOf(p, "declaration",
		func() (programItem, error) {
			g, err := p.parseGlobalVar()
			return programItem{global: g}, err
		},
		func() (programItem, error) {
			f, err := p.parseFunction()
			return programItem{fn: f}, err
		},
	)
}

// Parse builds a Program from tokens. The first failing declaration stops
// parsing; there is no error recovery. Declaring the same global or
// function name twice is an error.
func Parse(tokens []Token) (*Program, error) {
	p := NewParser(tokens)
	prog := newProgram()
	for p.peek().Type != EOF {
		startTok := p.peek()
		item, err := p.parseProgramItem()
		if err != nil {
			return nil, err
		}
		switch {
		case item.global != nil:
			if _, dup := prog.Globals[item.global.Name]; dup {
				return nil, p.errorAt(startTok, "duplicate global variable %q", item.global.Name)
			}
			prog.Globals[item.global.Name] = item.global
		case item.fn != nil:
			if _, dup := prog.Functions[item.fn.Name]; dup {
				return nil, p.errorAt(startTok, "duplicate function %q", item.fn.Name)
			}
			prog.Functions[item.fn.Name] = item.fn
		}
	}
	return prog, nil
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*Program, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}
