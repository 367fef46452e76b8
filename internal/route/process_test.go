package route

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestProcess_SimpleGet(t *testing.T) {
	r := mustParse(t, "GET:/hello/{name} /bin/echo hi ${name}")
	bindings, ok := Match(r, NewRequest(GET, "/hello/world", nil, nil))
	if !ok {
		t.Fatal("expected match")
	}

	p, err := r.Spawn(context.Background(), bindings, "GET /hello/world", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	resp, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}

	body, err := io.ReadAll(resp.Stdout)
	if err != nil {
		t.Fatalf("reading stdout: %v", err)
	}
	if string(body) != "hi world\n" {
		t.Errorf("body = %q, want %q", body, "hi world\n")
	}
}

func TestProcess_PutStreaming(t *testing.T) {
	r := mustParse(t, "PUT:/echo /bin/cat")
	bindings, ok := Match(r, NewRequest(PUT, "/echo", nil, nil))
	if !ok {
		t.Fatal("expected match")
	}

	p, err := r.Spawn(context.Background(), bindings, "PUT /echo", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := p.LoadStdin(strings.NewReader("hello")); err != nil {
		t.Fatalf("LoadStdin: %v", err)
	}

	resp, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	body, err := io.ReadAll(resp.Stdout)
	if err != nil {
		t.Fatalf("reading stdout: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
}

func TestProcess_SideChannelStatusAndHeader(t *testing.T) {
	script := `printf 'Status: 201\nLocation: /thing/42\n' > "$SHELL_SERVE_PIPE"; printf 'ok'`
	r := mustParse(t, "POST:/make /bin/sh -c ${script}")

	bindings := Bindings{{Name: "script", Value: script}}
	p, err := r.Spawn(context.Background(), bindings, "POST /make", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	resp, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp.Status != 201 {
		t.Errorf("Status = %d, want 201", resp.Status)
	}

	var location string
	for _, h := range resp.Headers {
		if h.Name == "Location" {
			location = h.Value
		}
		if h.Name == "Status" {
			t.Errorf("Status header must be consumed, not forwarded")
		}
	}
	if location != "/thing/42" {
		t.Errorf("Location = %q, want /thing/42", location)
	}

	body, err := io.ReadAll(resp.Stdout)
	if err != nil {
		t.Fatalf("reading stdout: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
}

func TestProcess_NonZeroExitDefaultsTo500(t *testing.T) {
	r := mustParse(t, "GET:/fail /bin/sh -c exit\\ 1")
	p, err := r.Spawn(context.Background(), nil, "GET /fail", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	resp, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp.Status != 500 {
		t.Errorf("Status = %d, want 500", resp.Status)
	}
}

type bufSink struct {
	tag  string
	data []byte
}

func (s *bufSink) HandlerStderr(tag string, data []byte) {
	s.tag = tag
	s.data = append(s.data, data...)
}

func TestProcess_StderrCapturedNotForwarded(t *testing.T) {
	r := mustParse(t, "GET:/warn /bin/sh -c echo\\ oops\\ 1>&2")
	sink := &bufSink{}

	p, err := r.Spawn(context.Background(), nil, "GET /warn", sink)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	resp, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	body, _ := io.ReadAll(resp.Stdout)
	if len(bytes.TrimSpace(body)) != 0 {
		t.Errorf("stdout = %q, want empty", body)
	}
	if !strings.Contains(string(sink.data), "oops") {
		t.Errorf("sink captured %q, want it to contain \"oops\"", sink.data)
	}
	if sink.tag != "GET /warn" {
		t.Errorf("sink tag = %q", sink.tag)
	}
}
