// Package route implements the route pattern language of spec.md §4.1: a
// textual route specification is parsed into a Route, which the matcher in
// matcher.go tests against a Request.
package route

import (
	"fmt"
	"strconv"
	"strings"
)

// Route is an immutable parsed route specification.
type Route struct {
	Method  Method
	Path    []PathPart
	Query   []QueryPart // nil means "no query constraint, ignore request query"
	Headers []QueryPart // nil means "no header constraint, ignore request headers"
	Handler string      // verbatim handler template, token 0 is the executable
}

// Parse parses one line of the route specification grammar:
//
//	route   := METHOD ":" uri SP handler
//	uri     := path [ "?" query ] [ "#" headers ]
//	path    := "/" [ segment ("/" segment)* ]
//	segment := literal | "{" name "}" | "{" name "*}" | "{" name "..}"
//	query   := qentry ("&" qentry)*
//	headers := qentry ("&" qentry)*
//	qentry  := key "=" ( literal | "{" name "}" | "{" name "*}" ) | "{" name "..}"
//	handler := any-chars-to-EOL
func Parse(spec string) (*Route, error) {
	colon := strings.IndexByte(spec, ':')
	if colon < 0 {
		return nil, fmt.Errorf("%w: missing method separator ':' in %q", ErrInvalidRoute, spec)
	}
	method, err := ParseMethod(spec[:colon])
	if err != nil {
		return nil, err
	}

	rest := spec[colon+1:]
	space := strings.IndexByte(rest, ' ')
	if space < 0 {
		return nil, fmt.Errorf("%w: missing handler separator ' ' in %q", ErrInvalidRoute, spec)
	}
	uri := rest[:space]
	handler := rest[space+1:]
	if uri == "" {
		return nil, fmt.Errorf("%w: empty uri in %q", ErrInvalidRoute, spec)
	}

	pathStr, queryStr, headerStr, hasQuery, hasHeaders, err := splitURI(uri)
	if err != nil {
		return nil, err
	}

	path, err := parsePath(pathStr)
	if err != nil {
		return nil, err
	}

	var query, headers []QueryPart
	if hasQuery {
		query, err = parseQueryLike(queryStr)
		if err != nil {
			return nil, err
		}
	}
	if hasHeaders {
		headers, err = parseQueryLike(headerStr)
		if err != nil {
			return nil, err
		}
	}

	return &Route{
		Method:  method,
		Path:    path,
		Query:   query,
		Headers: headers,
		Handler: handler,
	}, nil
}

// splitURI separates "path[?query][#headers]" into its three sections.
func splitURI(uri string) (pathStr, queryStr, headerStr string, hasQuery, hasHeaders bool, err error) {
	rest := uri
	if hash := strings.IndexByte(rest, '#'); hash >= 0 {
		headerStr = rest[hash+1:]
		hasHeaders = true
		rest = rest[:hash]
		if headerStr == "" {
			return "", "", "", false, false, fmt.Errorf("%w: empty headers section in %q", ErrInvalidRoute, uri)
		}
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		queryStr = rest[q+1:]
		hasQuery = true
		rest = rest[:q]
		if queryStr == "" {
			return "", "", "", false, false, fmt.Errorf("%w: empty query section in %q", ErrInvalidRoute, uri)
		}
	}
	pathStr = rest
	return pathStr, queryStr, headerStr, hasQuery, hasHeaders, nil
}

// parsePath turns "/a/{b}/{c..}" into path parts, dropping empty segments
// caused by leading or duplicate slashes.
func parsePath(pathStr string) ([]PathPart, error) {
	if !strings.HasPrefix(pathStr, "/") {
		return nil, fmt.Errorf("%w: path must start with '/': %q", ErrInvalidRoute, pathStr)
	}

	var parts []PathPart
	for _, segment := range strings.Split(pathStr, "/") {
		if segment == "" {
			continue
		}
		part, err := parsePathSegment(segment)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func parsePathSegment(segment string) (PathPart, error) {
	if !strings.HasPrefix(segment, "{") {
		return PathPart{Entry: RoutePart{Kind: KindLiteral, Value: segment}}, nil
	}
	if !strings.HasSuffix(segment, "}") {
		return PathPart{}, fmt.Errorf("%w: malformed brace token %q", ErrInvalidPathPart, segment)
	}
	inner := segment[1 : len(segment)-1]
	switch {
	case strings.HasSuffix(inner, ".."):
		name := inner[:len(inner)-2]
		if name == "" {
			return PathPart{}, fmt.Errorf("%w: empty catch-all name in %q", ErrInvalidPathPart, segment)
		}
		if err := validateName(name, segment); err != nil {
			return PathPart{}, err
		}
		return PathPart{CatchAll: true, Name: name}, nil
	case strings.HasSuffix(inner, "*"):
		name := inner[:len(inner)-1]
		if name == "" {
			return PathPart{}, fmt.Errorf("%w: empty optional name in %q", ErrInvalidPathPart, segment)
		}
		if err := validateName(name, segment); err != nil {
			return PathPart{}, err
		}
		return PathPart{Entry: RoutePart{Kind: KindNamedOptional, Name: name}}, nil
	default:
		if inner == "" {
			return PathPart{}, fmt.Errorf("%w: empty name in %q", ErrInvalidPathPart, segment)
		}
		if err := validateName(inner, segment); err != nil {
			return PathPart{}, err
		}
		return PathPart{Entry: RoutePart{Kind: KindNamed, Name: inner}}, nil
	}
}

// validateName rejects nested braces inside a name, which would indicate a
// malformed token rather than a legitimate binding name.
func validateName(name, token string) error {
	if strings.ContainsAny(name, "{}") {
		return fmt.Errorf("%w: malformed brace token %q", ErrInvalidPathPart, token)
	}
	return nil
}

// parseQueryLike parses a query or header section; both share the same
// qentry grammar.
func parseQueryLike(section string) ([]QueryPart, error) {
	var parts []QueryPart
	for _, entry := range strings.Split(section, "&") {
		part, err := parseQueryEntry(entry)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func parseQueryEntry(entry string) (QueryPart, error) {
	if strings.HasPrefix(entry, "{") && strings.HasSuffix(entry, "}") {
		inner := entry[1 : len(entry)-1]
		if strings.HasSuffix(inner, "..") {
			name := inner[:len(inner)-2]
			if name == "" || strings.ContainsAny(name, "{}") {
				return QueryPart{}, fmt.Errorf("%w: malformed catch-all entry %q", ErrInvalidPathPart, entry)
			}
			return QueryPart{CatchAll: true, Name: name}, nil
		}
		// A bare brace token without "..=" is not a valid qentry: qentry
		// requires "key=value" unless it is the whole-entry catch-all form.
		return QueryPart{}, fmt.Errorf("%w: %q is missing '=' and is not a catch-all", ErrInvalidRoute, entry)
	}

	eq := strings.IndexByte(entry, '=')
	if eq < 0 {
		return QueryPart{}, fmt.Errorf("%w: %q has no '='", ErrInvalidRoute, entry)
	}
	key := entry[:eq]
	valueToken := entry[eq+1:]

	value, err := parseQueryValue(valueToken)
	if err != nil {
		return QueryPart{}, err
	}
	return QueryPart{Key: key, Value: value}, nil
}

func parseQueryValue(token string) (RoutePart, error) {
	if !strings.HasPrefix(token, "{") {
		return RoutePart{Kind: KindLiteral, Value: token}, nil
	}
	if !strings.HasSuffix(token, "}") {
		return RoutePart{}, fmt.Errorf("%w: malformed brace token %q", ErrInvalidPathPart, token)
	}
	inner := token[1 : len(token)-1]
	if strings.HasSuffix(inner, "..") {
		return RoutePart{}, fmt.Errorf("%w: catch-all form only valid as a whole entry: %q", ErrInvalidRoute, token)
	}
	if strings.HasSuffix(inner, "*") {
		name := inner[:len(inner)-1]
		if name == "" || strings.ContainsAny(name, "{}") {
			return RoutePart{}, fmt.Errorf("%w: malformed brace token %q", ErrInvalidPathPart, token)
		}
		return RoutePart{Kind: KindNamedOptional, Name: name}, nil
	}
	if inner == "" || strings.ContainsAny(inner, "{}") {
		return RoutePart{}, fmt.Errorf("%w: malformed brace token %q", ErrInvalidPathPart, token)
	}
	return RoutePart{Kind: KindNamed, Name: inner}, nil
}

// statusFromExit derives the default HTTP status from a process exit code
// when the handler did not emit an explicit Status header (spec.md §4.4.4).
func statusFromExit(success bool) int {
	if success {
		return 200
	}
	return 500
}

// parseStatus validates the side channel's Status value per spec.md §4.4.4.
func parseStatus(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return n, nil
}
