package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xy-planning-network/trailhead"
)

var placeholderName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// A pattern is a compiled Route.Path.
// A pattern without placeholders has a nil matcher.
type pattern struct {
	raw     string
	names   []string
	matcher *regexp.Regexp
}

// compilePattern turns "/users/{id}/posts/{slug}" into an anchored matcher
// capturing one or more non-slash characters per placeholder.
func compilePattern(raw string) (pattern, error) {
	p := pattern{raw: raw}

	var expr strings.Builder
	expr.WriteByte('^')

	seen := make(map[string]bool)
	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			open = len(rest)
		}

		lit := rest[:open]
		if strings.ContainsRune(lit, '}') {
			return pattern{}, fmt.Errorf("%w: pattern %q: unmatched }", trailhead.ErrBadConfig, raw)
		}
		expr.WriteString(regexp.QuoteMeta(lit))

		rest = rest[open:]
		if rest == "" {
			break
		}

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return pattern{}, fmt.Errorf("%w: pattern %q: unmatched {", trailhead.ErrBadConfig, raw)
		}

		name := rest[1:end]
		if !placeholderName.MatchString(name) {
			return pattern{}, fmt.Errorf("%w: pattern %q: bad placeholder name %q", trailhead.ErrBadConfig, raw, name)
		}

		if seen[name] {
			return pattern{}, fmt.Errorf("%w: pattern %q: placeholder %q repeats", trailhead.ErrBadConfig, raw, name)
		}
		seen[name] = true

		p.names = append(p.names, name)
		expr.WriteString(`([^/]+)`)
		rest = rest[end+1:]
	}

	if len(p.names) == 0 {
		return p, nil
	}

	expr.WriteByte('$')
	re, err := regexp.Compile(expr.String())
	if err != nil {
		return pattern{}, fmt.Errorf("%w: pattern %q: %s", trailhead.ErrBadConfig, raw, err)
	}

	p.matcher = re
	return p, nil
}

// match extracts Params from path, in the order the placeholders appear.
func (p pattern) match(path string) (Params, bool) {
	if p.matcher == nil {
		return nil, false
	}

	sub := p.matcher.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}

	params := make(Params, len(p.names))
	for i, name := range p.names {
		params[i] = Param{Name: name, Value: sub[i+1]}
	}

	return params, true
}
