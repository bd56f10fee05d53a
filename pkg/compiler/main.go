// Package compiler provides the lexer, parser and code generator that turn
// the mlogc source language into Mindustry logic (mlog).
//
// Pipeline: source → Preprocess → Lex → Parse → Generate → mlog text
package compiler
