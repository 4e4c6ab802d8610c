package extractor

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var (
	typeDeclRe = regexp.MustCompile(`\b(?:class|interface|enum|record|struct)\s+([A-Za-z_]\w*)`)
	methodRe   = regexp.MustCompile(`([A-Za-z_]\w*)\s*\(`)
)

// controlWords are identifiers followed by "(" that never name a method.
var controlWords = map[string]bool{
	"if": true, "for": true, "foreach": true, "while": true, "switch": true,
	"catch": true, "using": true, "lock": true, "return": true, "new": true,
	"typeof": true, "nameof": true, "sizeof": true, "synchronized": true,
}

// readSourceLines reads r into lines, accepting CRLF endings.
func readSourceLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// methodName returns the declared method name of a declaration line.
func methodName(decl string) (string, bool) {
	if eq := strings.Index(decl, "="); eq >= 0 && eq < strings.Index(decl, "(") {
		return "", false
	}
	for _, m := range methodRe.FindAllStringSubmatch(decl, -1) {
		if !controlWords[m[1]] {
			return m[1], true
		}
	}
	return "", false
}

// typeName returns the type declared on line, if any. Lines that are
// plainly statements or comments are ignored.
func typeName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
		return "", false
	}
	m := typeDeclRe.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// splitLeading removes leading annotation groups from a declaration line.
// Java annotations start with '@' and may carry a parenthesised argument
// list; C# attributes are bracketed.
func splitLeading(line string, open byte) (groups []string, rest string) {
	rest = strings.TrimSpace(line)
	for len(rest) > 0 && rest[0] == open {
		end := annotationEnd(rest, open)
		groups = append(groups, rest[:end])
		rest = strings.TrimSpace(rest[end:])
	}
	return groups, rest
}

func annotationEnd(s string, open byte) int {
	if open == '[' {
		depth := 0
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
		return len(s)
	}

	i := 1
	for i < len(s) && (isIdentByte(s[i]) || s[i] == '.') {
		i++
	}
	if i < len(s) && s[i] == '(' {
		depth := 0
		for ; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return i
}
