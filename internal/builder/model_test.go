package builder

import "testing"

func TestAddRoute_ValidSpecIsAccepted(t *testing.T) {
	m := New()
	m.inputs[fieldMethod].SetValue("GET")
	m.inputs[fieldPath].SetValue("/hello/{name}")
	m.inputs[fieldHandler].SetValue("/bin/echo hi ${name}")

	m.addRoute()

	if m.status != "" {
		t.Fatalf("status = %q, want empty", m.status)
	}
	if len(m.routes) != 1 || m.routes[0] != "GET:/hello/{name} /bin/echo hi ${name}" {
		t.Errorf("routes = %v", m.routes)
	}
	if m.inputs[fieldMethod].Value() != "" {
		t.Errorf("inputs were not cleared after a successful add")
	}
}

func TestAddRoute_InvalidSpecSetsStatus(t *testing.T) {
	m := New()
	m.inputs[fieldMethod].SetValue("PATCH")
	m.inputs[fieldPath].SetValue("/a")
	m.inputs[fieldHandler].SetValue("/bin/true")

	m.addRoute()

	if m.status == "" {
		t.Fatal("expected a validation error for an unsupported method")
	}
	if len(m.routes) != 0 {
		t.Errorf("routes = %v, want none added", m.routes)
	}
}
