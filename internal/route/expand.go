package route

import "strings"

// Expand tokenises the route's handler template on single spaces and
// substitutes "${name}" placeholders in every token but the first (the
// executable path) using bindings. Unknown variables expand to the empty
// string; expansion is purely textual, never shell-evaluated, and each
// resulting token becomes one positional argument to the child.
func Expand(r *Route, bindings Bindings) (argv []string) {
	tokens := strings.Split(r.Handler, " ")
	if len(tokens) == 0 {
		return nil
	}

	values := make(map[string]string, len(bindings))
	for _, b := range bindings {
		// Last binding wins when a name repeats across segments.
		values[b.Name] = b.Value
	}

	argv = make([]string, len(tokens))
	argv[0] = tokens[0]
	for i, tok := range tokens[1:] {
		argv[i+1] = expandToken(tok, values)
	}
	return argv
}

func expandToken(token string, values map[string]string) string {
	var b strings.Builder
	for {
		start := strings.Index(token, "${")
		if start < 0 {
			b.WriteString(token)
			break
		}
		end := strings.IndexByte(token[start:], '}')
		if end < 0 {
			b.WriteString(token)
			break
		}
		end += start

		b.WriteString(token[:start])
		name := token[start+2 : end]
		b.WriteString(values[name]) // unknown name -> ""
		token = token[end+1:]
	}
	return b.String()
}
