package route

// PartKind distinguishes the three leaf-term shapes a RoutePart can take.
type PartKind int

const (
	// KindLiteral must match the segment/value exactly.
	KindLiteral PartKind = iota
	// KindNamed binds the segment/value to Name; absence is a non-match.
	KindNamed
	// KindNamedOptional binds like KindNamed but tolerates absence, binding "".
	KindNamedOptional
)

// RoutePart is the leaf term of the pattern language: a literal, a required
// binding, or an optional binding.
type RoutePart struct {
	Kind  PartKind
	Value string // literal text, only meaningful when Kind == KindLiteral
	Name  string // binding name, only meaningful for the Named kinds
}

// PathPart is one segment of a route's path pattern.
type PathPart struct {
	CatchAll bool
	Name     string // binding name when CatchAll is true
	Entry    RoutePart
}

// QueryPart is one key=value entry of a route's query or header constraint.
type QueryPart struct {
	CatchAll bool
	Name     string // binding name when CatchAll is true
	Key      string // match key, only meaningful when CatchAll is false
	Value    RoutePart
}
