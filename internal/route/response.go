package route

import "io"

// Header is one ordered (name, value) side-channel header, preserved in
// parse order for verbatim copy onto the HTTP response.
type Header struct {
	Name  string
	Value string
}

// Response is produced by Process.Wait: a status code, ordered headers, and
// a streaming reader over the child's stdout. The reader must be consumed
// (or closed) by the caller; it is not read eagerly.
type Response struct {
	Status  int
	Headers []Header
	Stdout  io.ReadCloser
}
