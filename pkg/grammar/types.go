package grammar

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TerminalType classifies how a terminal is entered by the user.
type TerminalType int

const (
	Static     TerminalType = iota // fixed text, rendered as-is
	Integer                        // free text validated as an integer
	Float                          // free text validated as a finite number
	Char                           // a single character
	String                         // any text
	Bool                           // true or false
	Identifier                     // [_A-Za-z][_A-Za-z0-9]*
)

func (t TerminalType) String() string {
	switch t {
	case Static:
		return "static"
	case Integer:
		return "int"
	case Float:
		return "float"
	case Char:
		return "char"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Identifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// Input reports whether the terminal takes free text.
func (t TerminalType) Input() bool {
	return t != Static
}

// ParseTerminalType converts a type name as written in grammar files.
// The empty string means Static.
func ParseTerminalType(s string) (TerminalType, error) {
	switch s {
	case "", "static":
		return Static, nil
	case "int", "integer":
		return Integer, nil
	case "float":
		return Float, nil
	case "char":
		return Char, nil
	case "string":
		return String, nil
	case "bool":
		return Bool, nil
	case "identifier", "ident":
		return Identifier, nil
	}
	return Static, fmt.Errorf("unknown terminal type %q", s)
}

var identifierRe = regexp.MustCompile(`^[_A-Za-z][_A-Za-z0-9]*$`)

// Valid reports whether text is acceptable input for the terminal type. The
// empty string is always valid so that half-typed blocks are not flagged.
func (t TerminalType) Valid(text string) bool {
	if text == "" {
		return true
	}
	switch t {
	case Integer:
		if _, err := strconv.ParseInt(strings.TrimSpace(text), 0, 64); err == nil {
			return true
		}
		f, ok := parseFinite(text)
		return ok && f == math.Trunc(f)
	case Float:
		_, ok := parseFinite(text)
		return ok
	case Char:
		return utf8.RuneCountInString(text) == 1
	case Bool:
		return text == "true" || text == "false"
	case Identifier:
		return identifierRe.MatchString(text)
	default:
		return true
	}
}

func parseFinite(text string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
