package ifc

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref is a reference to another entity instance (#id).
type Ref int

// Enum is a STEP enumeration literal, stored without the surrounding dots
// (.NOTDEFINED. becomes Enum("NOTDEFINED")).
type Enum string

// Typed wraps a typed attribute value such as IFCLABEL('Concrete') or
// IFCBOOLEAN(.T.).
type Typed struct {
	Type  string
	Value any
}

// scanner walks a single STEP record. STEP part 21 files are effectively
// ASCII; non-ASCII bytes only ever appear inside string literals, so the
// scanner is byte based.
type scanner struct {
	src string
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) advance() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	b := s.src[s.pos]
	s.pos++
	return b
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) expect(b byte) error {
	s.skipSpace()
	if s.peek() != b {
		return fmt.Errorf("expected %q at offset %d, got %q", string(b), s.pos, string(s.peek()))
	}
	s.pos++
	return nil
}

// scanInt reads a decimal integer.
func (s *scanner) scanInt() (int, error) {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	if start == s.pos {
		return 0, fmt.Errorf("expected integer at offset %d", start)
	}
	return strconv.Atoi(s.src[start:s.pos])
}

// scanIdent reads an entity or type keyword (IFCWALL, FILE_SCHEMA, ...).
func (s *scanner) scanIdent() string {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.src) {
		b := s.src[s.pos]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_' {
			s.pos++
			continue
		}
		break
	}
	return strings.ToUpper(s.src[start:s.pos])
}

// scanString reads a STEP string literal. Apostrophes are escaped by
// doubling them inside the literal.
func (s *scanner) scanString() (string, error) {
	if err := s.expect('\''); err != nil {
		return "", err
	}
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.advance()
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if s.peek() == '\'' {
			s.pos++
			b.WriteByte('\'')
			continue
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (s *scanner) scanEnum() (Enum, error) {
	if err := s.expect('.'); err != nil {
		return "", err
	}
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '.' {
		s.pos++
	}
	if s.pos >= len(s.src) {
		return "", fmt.Errorf("unterminated enumeration literal")
	}
	lit := s.src[start:s.pos]
	s.pos++ // closing dot
	return Enum(lit), nil
}

func (s *scanner) scanNumber() (any, error) {
	start := s.pos
	if b := s.peek(); b == '+' || b == '-' {
		s.pos++
	}
	isReal := false
	for s.pos < len(s.src) {
		b := s.src[s.pos]
		if b >= '0' && b <= '9' {
			s.pos++
			continue
		}
		if b == '.' || b == 'E' || b == 'e' {
			isReal = true
			s.pos++
			if b != '.' {
				if n := s.peek(); n == '+' || n == '-' {
					s.pos++
				}
			}
			continue
		}
		break
	}
	lit := s.src[start:s.pos]
	if !isReal {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer literal %q", lit)
		}
		return float64(n), nil
	}
	// STEP reals may end in a bare dot ("5.").
	f, err := strconv.ParseFloat(strings.TrimSuffix(lit, "."), 64)
	if err != nil {
		return nil, fmt.Errorf("bad real literal %q", lit)
	}
	return f, nil
}

// scanValue reads one attribute value: unset ($ or *), reference, string,
// enumeration, number, aggregate, or typed value.
func (s *scanner) scanValue() (any, error) {
	s.skipSpace()
	switch b := s.peek(); {
	case b == '$' || b == '*':
		s.pos++
		return nil, nil
	case b == '#':
		s.pos++
		id, err := s.scanInt()
		if err != nil {
			return nil, err
		}
		return Ref(id), nil
	case b == '\'':
		return s.scanString()
	case b == '.':
		return s.scanEnum()
	case b == '(':
		return s.scanList()
	case b == '-' || b == '+' || (b >= '0' && b <= '9'):
		return s.scanNumber()
	case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z'):
		name := s.scanIdent()
		inner, err := s.scanList()
		if err != nil {
			return nil, err
		}
		if len(inner) == 1 {
			return Typed{Type: name, Value: inner[0]}, nil
		}
		return Typed{Type: name, Value: inner}, nil
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", string(b), s.pos)
	}
}

// scanList reads a parenthesized, comma separated aggregate.
func (s *scanner) scanList() ([]any, error) {
	if err := s.expect('('); err != nil {
		return nil, err
	}
	var out []any
	s.skipSpace()
	if s.peek() == ')' {
		s.pos++
		return out, nil
	}
	for {
		v, err := s.scanValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		case ')':
			s.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d", s.pos)
		}
	}
}
