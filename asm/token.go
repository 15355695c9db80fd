// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reLabel      = regexp.MustCompile(`^\s*(\.?[A-Za-z_][A-Za-z0-9_]*):`)
	reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// scanner tracks quoting and nesting while walking a line.
type scanner struct {
	quote byte // Open quote character, or 0.
	depth int  // Bracket and parenthesis depth.
	paren int  // Parenthesis depth.
	skip  bool // Next character is escaped.
}

// next consumes c, returning true if it is outside of quotes and at
// nesting depth zero.
func (sc *scanner) next(c byte) (top bool) {
	if sc.quote != 0 {
		switch {
		case sc.skip:
			sc.skip = false
		case c == '\\':
			sc.skip = true
		case c == sc.quote:
			sc.quote = 0
		}
		return false
	}

	switch c {
	case '"', '\'':
		sc.quote = c
		return false
	case '(':
		sc.paren++
		sc.depth++
		return false
	case ')':
		sc.paren--
		sc.depth--
		return false
	case '[':
		sc.depth++
		return false
	case ']':
		sc.depth--
		return false
	}

	return sc.depth == 0
}

// stripComment removes a '#' comment that is not inside quotes.
func stripComment(line string) string {
	var sc scanner
	for n := 0; n < len(line); n++ {
		if sc.next(line[n]) && line[n] == '#' {
			return line[:n]
		}
	}
	return line
}

// splitLabels removes the leading label definitions from a line.
func splitLabels(line string) (labels []string, rest string) {
	rest = line
	for {
		match := reLabel.FindStringSubmatchIndex(rest)
		if match == nil {
			break
		}
		labels = append(labels, rest[match[2]:match[3]])
		rest = rest[match[1]:]
	}
	rest = strings.TrimSpace(rest)
	return
}

// splitInstruction splits an instruction into its mnemonic and its comma
// separated operands. Whitespace in an operand is dropped unless it is
// quoted or inside parentheses.
func splitInstruction(text string) (mnemonic string, args []string) {
	text = strings.TrimSpace(text)
	end := strings.IndexFunc(text, unicode.IsSpace)
	if end < 0 {
		return text, nil
	}
	mnemonic = text[:end]
	text = strings.TrimSpace(text[end:])
	if len(text) == 0 {
		return
	}

	var sc scanner
	var arg strings.Builder
	for n := 0; n < len(text); n++ {
		c := text[n]
		top := sc.next(c)
		switch {
		case top && c == ',':
			args = append(args, arg.String())
			arg.Reset()
		case (c == ' ' || c == '\t') && sc.quote == 0 && sc.paren == 0:
			// dropped
		default:
			arg.WriteByte(c)
		}
	}
	args = append(args, arg.String())

	return
}

// term is a signed element of an expression.
type term struct {
	text   string
	negate bool
}

// splitTerms splits an expression into '+' and '-' separated terms.
func splitTerms(expr string) (terms []term, ok bool) {
	var sc scanner
	negate := false
	start := 0
	for n := 0; n < len(expr); n++ {
		c := expr[n]
		if !sc.next(c) || (c != '+' && c != '-') {
			continue
		}
		if n == start {
			// Unary sign.
			if c == '-' {
				negate = !negate
			}
			start = n + 1
			continue
		}
		if isExponent(expr[start:n]) {
			continue
		}
		terms = append(terms, term{text: expr[start:n], negate: negate})
		negate = c == '-'
		start = n + 1
	}

	if start >= len(expr) || sc.quote != 0 || sc.depth != 0 {
		return
	}

	terms = append(terms, term{text: expr[start:], negate: negate})
	ok = true
	return
}

// isExponent is true when text is a decimal mantissa awaiting its
// exponent, as in '1.5e' of '1.5e-3' or '1e' of '1e-3'.
func isExponent(text string) bool {
	if len(text) < 2 || text[0] < '0' || text[0] > '9' {
		return false
	}
	last := text[len(text)-1]
	if last != 'e' && last != 'E' {
		return false
	}
	for _, c := range text[:len(text)-1] {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}
