package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnclosedBraces reports a "${" with no matching "}".
var ErrUnclosedBraces = errors.New("config: unclosed '${' in expansion")

// UnknownVariableError reports a variable found neither in the [PATHS]
// section nor in the environment.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("config: unknown variable %q in expansion", e.Name)
}

// ExpandSyntaxError reports malformed expansion syntax at a byte offset.
type ExpandSyntaxError struct {
	Pos int
}

func (e *ExpandSyntaxError) Error() string {
	return fmt.Sprintf("config: invalid expansion syntax at position %d", e.Pos)
}

func isVarChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// lookupVar resolves a variable, [PATHS] first, then the environment.
// Resolved values are themselves expanded, so PATHS entries may chain.
func (c *Cfg) lookupVar(name string) (string, bool, error) {
	if v, ok := c.data["PATHS"][name]; ok {
		expanded, err := c.ExpandDollar(v)
		return expanded, true, err
	}
	if v, ok := os.LookupEnv(name); ok {
		expanded, err := c.ExpandDollar(v)
		return expanded, true, err
	}
	return "", false, nil
}

// ExpandDollar substitutes $NAME, ${NAME} and ${NAME:-default} in s.
// Defaults may themselves contain expansions and nested braces.
func (c *Cfg) ExpandDollar(s string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '$' {
			out.WriteByte(s[i])
			i++
			continue
		}
		i++
		if i >= len(s) {
			return "", &ExpandSyntaxError{Pos: len(s)}
		}

		if s[i] != '{' {
			start := i
			for i < len(s) && isVarChar(s[i]) {
				i++
			}
			name := s[start:i]
			v, ok, err := c.lookupVar(name)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", &UnknownVariableError{Name: name}
			}
			out.WriteString(v)
			continue
		}

		i++
		start := i
		for i < len(s) && isVarChar(s[i]) {
			i++
		}
		name := s[start:i]
		if name == "" {
			return "", &ExpandSyntaxError{Pos: start}
		}
		if i >= len(s) {
			return "", ErrUnclosedBraces
		}
		switch s[i] {
		case '}':
			i++
			v, ok, err := c.lookupVar(name)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", &UnknownVariableError{Name: name}
			}
			out.WriteString(v)
		case ':':
			i++
			if i >= len(s) || s[i] != '-' {
				return "", &ExpandSyntaxError{Pos: i}
			}
			i++
			// The default value runs to the matching close brace and may
			// itself contain balanced braces.
			depth := 0
			defStart := i
			end := -1
			for i < len(s) {
				switch s[i] {
				case '{':
					depth++
				case '}':
					if depth == 0 {
						end = i
					} else {
						depth--
					}
				}
				if end >= 0 {
					break
				}
				i++
			}
			if end < 0 {
				return "", ErrUnclosedBraces
			}
			def := s[defStart:end]
			i = end + 1
			v, ok, err := c.lookupVar(name)
			if err != nil {
				return "", err
			}
			if ok {
				out.WriteString(v)
			} else {
				expanded, err := c.ExpandDollar(def)
				if err != nil {
					return "", err
				}
				out.WriteString(expanded)
			}
		default:
			return "", &ExpandSyntaxError{Pos: i}
		}
	}
	return out.String(), nil
}
