package route

import "strings"

// Binding is one (name, value) pair produced by a successful match, in the
// order the pattern declared them.
type Binding struct {
	Name  string
	Value string
}

// Bindings is an ordered sequence of Binding, as returned by Match.
type Bindings []Binding

// Match tests req against r. On success it returns the ordered bindings; on
// failure it returns (nil, false). Method, then path, then (if configured)
// query, then (if configured) headers must all match — see spec.md §4.2.
func Match(r *Route, req *Request) (Bindings, bool) {
	if r.Method != req.Method {
		return nil, false
	}

	var bindings Bindings

	pathBindings, ok := matchPath(r.Path, req.Path)
	if !ok {
		return nil, false
	}
	bindings = append(bindings, pathBindings...)

	if r.Query != nil {
		queryBindings, ok := matchQueryLike(r.Query, req.Query)
		if !ok {
			return nil, false
		}
		bindings = append(bindings, queryBindings...)
	}

	if r.Headers != nil {
		headerBindings, ok := matchQueryLike(r.Headers, req.Headers)
		if !ok {
			return nil, false
		}
		bindings = append(bindings, headerBindings...)
	}

	return bindings, true
}

// matchPath walks the route's path parts left to right against the
// request's path segments.
func matchPath(parts []PathPart, reqPath string) (Bindings, bool) {
	segments := splitPathSegments(reqPath)

	var bindings Bindings
	i := 0
	for _, part := range parts {
		if part.CatchAll {
			remaining := strings.Join(segments[i:], "/")
			bindings = append(bindings, Binding{Name: part.Name, Value: remaining})
			return bindings, true
		}

		switch part.Entry.Kind {
		case KindLiteral:
			if i >= len(segments) || segments[i] != part.Entry.Value {
				return nil, false
			}
			i++
		case KindNamed:
			if i >= len(segments) {
				return nil, false
			}
			bindings = append(bindings, Binding{Name: part.Entry.Name, Value: segments[i]})
			i++
		case KindNamedOptional:
			if i < len(segments) {
				bindings = append(bindings, Binding{Name: part.Entry.Name, Value: segments[i]})
				i++
			} else {
				bindings = append(bindings, Binding{Name: part.Entry.Name, Value: ""})
			}
		}
	}

	if i != len(segments) {
		return nil, false
	}
	return bindings, true
}

func splitPathSegments(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	var segments []string
	for _, s := range strings.Split(trimmed, "/") {
		if s == "" {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

// matchQueryLike implements the shared query/header matching algorithm of
// spec.md §4.2: clone the mapping, consume each route term against it, and
// reject if anything is left over and there is no catch-all.
func matchQueryLike(parts []QueryPart, reqValues map[string]string) (Bindings, bool) {
	remaining := make(map[string]string, len(reqValues))
	for k, v := range reqValues {
		remaining[k] = v
	}

	var bindings Bindings
	for _, part := range parts {
		if part.CatchAll {
			bindings = append(bindings, Binding{Name: part.Name, Value: encodeRemainder(remaining)})
			for k := range remaining {
				delete(remaining, k)
			}
			continue
		}

		value, present := remaining[part.Key]
		switch part.Value.Kind {
		case KindLiteral:
			if !present || value != part.Value.Value {
				return nil, false
			}
			delete(remaining, part.Key)
		case KindNamed:
			if !present {
				return nil, false
			}
			bindings = append(bindings, Binding{Name: part.Value.Name, Value: value})
			delete(remaining, part.Key)
		case KindNamedOptional:
			if present {
				bindings = append(bindings, Binding{Name: part.Value.Name, Value: value})
				delete(remaining, part.Key)
			} else {
				bindings = append(bindings, Binding{Name: part.Value.Name, Value: ""})
			}
		}
	}

	if len(remaining) != 0 {
		return nil, false
	}
	return bindings, true
}

// encodeRemainder re-serialises leftover key/value pairs as "k=v&k=v..."
// for a query catch-all binding. Order is unspecified, per spec.md §3.
func encodeRemainder(remaining map[string]string) string {
	if len(remaining) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(remaining))
	for k, v := range remaining {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, "&")
}
