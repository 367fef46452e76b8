package route

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// sideChannelEnv is the environment variable a handler reads to find the
// path it should open for writing side-channel metadata.
const sideChannelEnv = "SHELL_SERVE_PIPE"

// Process is a live, single-owner handle on a spawned handler. It is
// created by Spawn, optionally fed a request body via LoadStdin, and
// consumed exactly once by Wait. See spec.md §4.4 for the full state
// machine.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	sideRead  *os.File
	sideWrite *os.File // owned until Wait releases it

	stderrDone chan struct{}
	stderrBuf  *bytes.Buffer

	mu     sync.Mutex
	waited bool
}

// StderrSink receives a spawned handler's stderr, tagged with the route
// that produced it. Implementations must not block the handler for long;
// see logging.StderrSink for the default slog-backed sink.
type StderrSink interface {
	HandlerStderr(tag string, data []byte)
}

// Spawn builds the argument vector from bindings, wires stdin/stdout/stderr
// plus the side-channel pipe, and starts the child. The returned Process
// must eventually have Wait called on it; if the caller instead abandons
// it (client disconnect, ctx cancellation), Close must be called to avoid
// leaking the child and its pipes.
func (r *Route) Spawn(ctx context.Context, bindings Bindings, stderrTag string, sink StderrSink) (*Process, error) {
	argv := Expand(r, bindings)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty handler template", ErrRouteSpawn)
	}

	sideRead, sideWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: side-channel pipe: %v", ErrRouteSpawn, err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), sideChannelEnv+"="+sideChannelPath(sideWrite))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		sideRead.Close()
		sideWrite.Close()
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrRouteSpawn, err)
	}
	// stdout is a plain os.Pipe rather than cmd.StdoutPipe: cmd.Wait closes
	// the read end of a StdoutPipe, but the Response hands stdout to the
	// caller to read after Wait has returned.
	stdout, stdoutWrite, err := os.Pipe()
	if err != nil {
		sideRead.Close()
		sideWrite.Close()
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrRouteSpawn, err)
	}
	cmd.Stdout = stdoutWrite
	stderr, err := cmd.StderrPipe()
	if err != nil {
		sideRead.Close()
		sideWrite.Close()
		stdout.Close()
		stdoutWrite.Close()
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrRouteSpawn, err)
	}

	// sideWrite is deliberately NOT added to cmd.ExtraFiles: the child must
	// not inherit the descriptor directly. It reaches the side channel by
	// opening sideChannelPath itself, which works as long as sideWrite
	// stays open in this process (conservatively: until after Wait).
	if err := cmd.Start(); err != nil {
		sideRead.Close()
		sideWrite.Close()
		stdout.Close()
		stdoutWrite.Close()
		return nil, fmt.Errorf("%w: %v", ErrRouteSpawn, err)
	}
	// The child has its own copy of the stdout write end; dropping ours lets
	// the read end reach EOF once the child exits.
	stdoutWrite.Close()

	p := &Process{
		cmd:        cmd,
		stdin:      stdin,
		stdout:     stdout,
		sideRead:   sideRead,
		sideWrite:  sideWrite,
		stderrDone: make(chan struct{}),
		stderrBuf:  &bytes.Buffer{},
	}

	go func() {
		defer close(p.stderrDone)
		buf := make([]byte, 4096)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				p.stderrBuf.Write(buf[:n])
			}
			if err != nil {
				break
			}
		}
		if sink != nil && p.stderrBuf.Len() > 0 {
			sink.HandlerStderr(stderrTag, p.stderrBuf.Bytes())
		}
	}()

	return p, nil
}

// sideChannelPath builds the /proc/<pid>/fd/<n> path that resolves, from
// the child's view, to this process's still-open write end of the side
// channel. This mechanism is POSIX-specific (Linux /proc in particular);
// see spec.md §9.
func sideChannelPath(w *os.File) string {
	return fmt.Sprintf("/proc/%d/fd/%d", os.Getpid(), int(w.Fd()))
}

// LoadStdin copies reader into the child's stdin until EOF, then closes
// stdin. It is idempotent-by-construction: stdin is taken exactly once, so
// a second call is a no-op.
func (p *Process) LoadStdin(reader io.Reader) error {
	p.mu.Lock()
	stdin := p.stdin
	p.stdin = nil
	p.mu.Unlock()

	if stdin == nil {
		return nil
	}
	defer stdin.Close()

	if _, err := io.Copy(stdin, reader); err != nil {
		return fmt.Errorf("%w: %v", ErrRouteIoError, err)
	}
	return nil
}

// Wait awaits the child's exit, releases the side channel's write end so
// the read end reaches EOF, parses the side-channel metadata, and returns
// the assembled Response. See spec.md §4.4.3-4.4.6.
func (p *Process) Wait() (*Response, error) {
	p.mu.Lock()
	if p.stdin != nil {
		p.stdin.Close()
		p.stdin = nil
	}
	p.waited = true
	p.mu.Unlock()

	// Drain stderr to EOF before cmd.Wait, which closes the stderr pipe.
	<-p.stderrDone

	err := p.cmd.Wait()
	success := err == nil
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			p.sideWrite.Close()
			p.sideRead.Close()
			return nil, fmt.Errorf("%w: %v", ErrRouteWait, err)
		}
	}

	// Release the write end so the read end observes EOF. The child opened
	// its own descriptor through sideChannelPath; closing ours here is safe
	// once the child has exited.
	p.sideWrite.Close()

	sideData, err := io.ReadAll(p.sideRead)
	p.sideRead.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRouteIoError, err)
	}

	headers, status, err := parseSideChannel(sideData, success)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:  status,
		Headers: headers,
		Stdout:  p.stdout,
	}, nil
}

// Close kills the child and releases all pipe handles without waiting for
// an orderly exit. Callers must invoke this when abandoning a Process
// before Wait, e.g. on client disconnect or context cancellation.
func (p *Process) Close() {
	p.mu.Lock()
	alreadyWaited := p.waited
	p.waited = true
	p.mu.Unlock()

	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	if !alreadyWaited {
		_ = p.cmd.Wait()
	}
	p.sideWrite.Close()
	p.sideRead.Close()
	if p.stdout != nil {
		p.stdout.Close()
	}
}

// parseSideChannel parses "Name: Value\n" lines, consuming a reserved
// Status header if present and deriving the status from exit success
// otherwise.
func parseSideChannel(data []byte, success bool) ([]Header, int, error) {
	var headers []Header
	statusValue := ""
	hasStatus := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if name == "Status" {
			statusValue = value
			hasStatus = true
			continue
		}
		headers = append(headers, Header{Name: name, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRouteIoError, err)
	}

	if hasStatus {
		status, err := parseStatus(statusValue)
		if err != nil {
			return nil, 0, err
		}
		return headers, status, nil
	}
	return headers, statusFromExit(success), nil
}
