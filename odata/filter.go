/*
 * Copyright 2025 northwind-go.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package odata

import (
	"strconv"
	"strings"

	"github.com/northwind-go/northwind/types"
)

// comparison operators of the filter grammar, mapped to SQL.
var comparisonOps = map[string]string{
	"eq": "=",
	"ne": "<>",
	"gt": ">",
	"ge": ">=",
	"lt": "<",
	"le": "<=",
}

// ParseFilter compiles a filter expression into a query filter. The grammar
// is a small OData subset: comparisons with eq/ne/gt/ge/lt/le, the functions
// contains(field,'v') and startswith(field,'v'), the logical connectives
// and/or, and parentheses. Field names are resolved through the mapping and
// qualified with the entity's table alias, so the compiled predicate stays
// unambiguous when an expand joins a related table. Unknown fields and
// malformed expressions fail with ErrInvalidArgument.
func ParseFilter(input string, m Mapping) (*types.QueryFilter, error) {
	tokens, err := lexFilter(input)
	if err != nil {
		return nil, err
	}
	p := &filterParser{tokens: tokens, mapping: m}
	filter, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, types.InvalidArgumentf("unexpected %q after end of filter expression", tok.text)
	}
	return filter, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

func lexFilter(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ","})
			i++
		case c == '\'':
			text, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, text})
			i = next
		case c == '-' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < len(input) && (input[i] == '.' || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			tokens = append(tokens, token{tokNumber, input[start:i]})
		case isIdentByte(c):
			start := i
			for i < len(input) && (isIdentByte(input[i]) || input[i] == '/') {
				i++
			}
			tokens = append(tokens, token{tokIdent, input[start:i]})
		default:
			return nil, types.InvalidArgumentf("unexpected character %q in filter expression", string(c))
		}
	}
	return append(tokens, token{kind: tokEOF}), nil
}

// lexString consumes a single-quoted literal starting at input[start].
// A doubled quote inside the literal stands for one quote character.
func lexString(input string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		if input[i] != '\'' {
			b.WriteByte(input[i])
			i++
			continue
		}
		if i+1 < len(input) && input[i+1] == '\'' {
			b.WriteByte('\'')
			i += 2
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, types.InvalidArgumentf("unterminated string literal in filter expression")
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type filterParser struct {
	tokens  []token
	pos     int
	mapping Mapping
}

func (p *filterParser) peek() token {
	return p.tokens[p.pos]
}

func (p *filterParser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *filterParser) parseOr() (*types.QueryFilter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && strings.EqualFold(p.peek().text, "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = left.Or(right)
	}
	return left, nil
}

func (p *filterParser) parseAnd() (*types.QueryFilter, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && strings.EqualFold(p.peek().text, "and") {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = left.And(right)
	}
	return left, nil
}

func (p *filterParser) parseTerm() (*types.QueryFilter, error) {
	tok := p.peek()
	switch tok.kind {
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, types.InvalidArgumentf("missing closing parenthesis in filter expression")
		}
		return inner, nil
	case tokIdent:
		name := strings.ToLower(tok.text)
		if name == "contains" || name == "startswith" {
			return p.parseFunction(name)
		}
		return p.parseComparison()
	default:
		return nil, types.InvalidArgumentf("expected a condition, got %q", tok.text)
	}
}

// parseFunction handles contains(field,'v') and startswith(field,'v'),
// both compiled to LIKE with the pattern metacharacters escaped.
func (p *filterParser) parseFunction(name string) (*types.QueryFilter, error) {
	p.next()
	if tok := p.next(); tok.kind != tokLParen {
		return nil, types.InvalidArgumentf("%s must be followed by parentheses", name)
	}
	field := p.next()
	if field.kind != tokIdent {
		return nil, types.InvalidArgumentf("%s expects a field name, got %q", name, field.text)
	}
	column, ok := p.column(field.text)
	if !ok {
		return nil, types.InvalidArgumentf("unknown filter field %q", field.text)
	}
	if tok := p.next(); tok.kind != tokComma {
		return nil, types.InvalidArgumentf("%s expects two arguments", name)
	}
	value := p.next()
	if value.kind != tokString {
		return nil, types.InvalidArgumentf("%s expects a string literal, got %q", name, value.text)
	}
	if tok := p.next(); tok.kind != tokRParen {
		return nil, types.InvalidArgumentf("missing closing parenthesis after %s arguments", name)
	}

	pattern := escapeLikePattern(value.text)
	if name == "contains" {
		pattern = "%" + pattern + "%"
	} else {
		pattern += "%"
	}
	return types.NewQueryFilter(column+` LIKE ? ESCAPE '\'`, pattern), nil
}

// column resolves an exposed field name and qualifies it with the model's
// table alias placeholder.
func (p *filterParser) column(name string) (string, bool) {
	col, ok := p.mapping.column(name)
	if !ok {
		return "", false
	}
	return "?TableAlias." + col, true
}

func (p *filterParser) parseComparison() (*types.QueryFilter, error) {
	field := p.next()
	column, ok := p.column(field.text)
	if !ok {
		return nil, types.InvalidArgumentf("unknown filter field %q", field.text)
	}
	op := p.next()
	if op.kind != tokIdent {
		return nil, types.InvalidArgumentf("expected a comparison operator after %q", field.text)
	}
	sqlOp, ok := comparisonOps[strings.ToLower(op.text)]
	if !ok {
		return nil, types.InvalidArgumentf("unknown comparison operator %q", op.text)
	}

	lit := p.next()
	switch lit.kind {
	case tokString:
		return types.NewQueryFilter(column+" "+sqlOp+" ?", lit.text), nil
	case tokNumber:
		value, err := parseNumber(lit.text)
		if err != nil {
			return nil, err
		}
		return types.NewQueryFilter(column+" "+sqlOp+" ?", value), nil
	case tokIdent:
		switch strings.ToLower(lit.text) {
		case "true":
			return types.NewQueryFilter(column+" "+sqlOp+" ?", true), nil
		case "false":
			return types.NewQueryFilter(column+" "+sqlOp+" ?", false), nil
		case "null":
			switch sqlOp {
			case "=":
				return types.NewQueryFilter(column + " IS NULL"), nil
			case "<>":
				return types.NewQueryFilter(column + " IS NOT NULL"), nil
			default:
				return nil, types.InvalidArgumentf("null only supports eq and ne comparisons")
			}
		}
		return nil, types.InvalidArgumentf("unexpected value %q in filter expression", lit.text)
	default:
		return nil, types.InvalidArgumentf("expected a literal after %q %s", field.text, op.text)
	}
}

func parseNumber(text string) (interface{}, error) {
	if strings.Contains(text, ".") {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, types.InvalidArgumentf("invalid number %q in filter expression", text)
		}
		return value, nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, types.InvalidArgumentf("invalid number %q in filter expression", text)
	}
	return value, nil
}

func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
