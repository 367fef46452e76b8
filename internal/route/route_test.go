package route

import "testing"

func TestParse_Simple(t *testing.T) {
	r, err := Parse("GET:/hello/{name} /bin/echo hi ${name}")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if r.Method != GET {
		t.Errorf("Method = %v, want GET", r.Method)
	}
	if len(r.Path) != 2 {
		t.Fatalf("Path = %v, want 2 parts", r.Path)
	}
	if r.Path[0].Entry.Kind != KindLiteral || r.Path[0].Entry.Value != "hello" {
		t.Errorf("Path[0] = %+v, want literal \"hello\"", r.Path[0])
	}
	if r.Path[1].Entry.Kind != KindNamed || r.Path[1].Entry.Name != "name" {
		t.Errorf("Path[1] = %+v, want Named(name)", r.Path[1])
	}
	if r.Handler != "/bin/echo hi ${name}" {
		t.Errorf("Handler = %q", r.Handler)
	}
}

func TestParse_CatchAllPath(t *testing.T) {
	r, err := Parse("GET:/files/{p..} /bin/echo ${p}")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(r.Path) != 2 || !r.Path[1].CatchAll || r.Path[1].Name != "p" {
		t.Errorf("Path = %+v, want catch-all \"p\" as last part", r.Path)
	}
}

func TestParse_QueryAndHeaders(t *testing.T) {
	r, err := Parse("GET:/q?x={x}&{rest..} /bin/echo ${x}|${rest}")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(r.Query) != 2 {
		t.Fatalf("Query = %+v, want 2 parts", r.Query)
	}
	if r.Query[0].Key != "x" || r.Query[0].Value.Kind != KindNamed {
		t.Errorf("Query[0] = %+v", r.Query[0])
	}
	if !r.Query[1].CatchAll || r.Query[1].Name != "rest" {
		t.Errorf("Query[1] = %+v, want catch-all \"rest\"", r.Query[1])
	}

	r, err = Parse("GET:/h#x={x}&y=literal /bin/true")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(r.Headers) != 2 {
		t.Fatalf("Headers = %+v, want 2 parts", r.Headers)
	}
}

func TestParse_OptionalAndLeadingSlashes(t *testing.T) {
	r, err := Parse("GET://a//{b*} /bin/true")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(r.Path) != 2 {
		t.Fatalf("Path = %+v, want empty segments discarded", r.Path)
	}
	if r.Path[1].Entry.Kind != KindNamedOptional || r.Path[1].Entry.Name != "b" {
		t.Errorf("Path[1] = %+v, want NamedOptional(b)", r.Path[1])
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"GET/no-colon /bin/true",
		"get:/lower /bin/true",
		"GET:/no-handler-separator",
		"GET:/{bad /bin/true",
		"GET:/q?novalue /bin/true",
		"GET:/q?a={x..}extra /bin/true",
	}
	for _, spec := range cases {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) = nil error, want error", spec)
		}
	}
}
