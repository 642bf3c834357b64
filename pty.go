package decterm

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
)

// writeChunk is the largest slice handed to a single pty write: the POSIX
// atomic-write minimum, so partial writes never interleave reply bytes.
const writeChunk = 128

// readChunk bounds how many bytes the parser consumes per loop tick, keeping
// the loop responsive while a fast child floods the pty.
const readChunk = 4096

// outboundShrink is the hysteresis threshold above which the drained
// outbound buffer releases its backing storage.
const outboundShrink = 32 * 1024

// defaultBellSuppress is the window during which repeated bells collapse
// into one.
const defaultBellSuppress = 200 * time.Millisecond

// ErrPtyClosed is returned by Run when the child side of the pty reaches EOF.
var ErrPtyClosed = errors.New("decterm: pty closed")

// PtyIO connects a Terminal to a child process over a pseudo-terminal: it
// drains child output into the parser, carries keystrokes and dispatcher
// replies back through a coalescing outbound buffer, and applies the
// local-echo and bracketed-paste transforms on the way out.
type PtyIO struct {
	term *Terminal
	cmd  *exec.Cmd
	f    *os.File

	readCh chan []byte
	exited chan struct{}

	outMu     sync.Mutex
	out       []byte
	wakeWrite chan struct{}

	closeOnce sync.Once

	bellSuppress time.Duration
	lastBell     time.Time
	bell         BellProvider
}

// PtyOption configures a PtyIO session.
type PtyOption func(*PtyIO)

// WithBellSuppress sets the window during which repeated bells are swallowed.
func WithBellSuppress(d time.Duration) PtyOption {
	return func(p *PtyIO) {
		p.bellSuppress = d
	}
}

// StartCommand launches cmd on a new pty sized to the terminal and wires the
// terminal's reply path into the outbound buffer. The returned session is
// inert until Run is called.
func StartCommand(term *Terminal, cmd *exec.Cmd, opts ...PtyOption) (*PtyIO, error) {
	p := &PtyIO{
		term:         term,
		cmd:          cmd,
		readCh:       make(chan []byte, 8),
		exited:       make(chan struct{}),
		wakeWrite:    make(chan struct{}, 1),
		bellSuppress: defaultBellSuppress,
	}
	for _, opt := range opts {
		opt(p)
	}

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(term.Rows()),
		Cols: uint16(term.Cols()),
	})
	if err != nil {
		return nil, err
	}
	p.f = f

	// Dispatcher replies land in the outbound buffer, ordered before any
	// keystroke enqueued after the triggering input was parsed.
	term.SetResponse(writerFunc(p.enqueue))

	// The bell suppress window sits between the emulator and the host bell.
	p.bell = term.swapBell(bellFunc(p.ringBell))

	// Reader task: drain the child into bounded chunks for the main loop.
	go func() {
		defer close(p.readCh)
		buf := make([]byte, readChunk)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				p.readCh <- chunk
			}
			if err != nil {
				return
			}
		}
	}()

	// Child watcher: the moral equivalent of a SIGCHLD handler, it only
	// signals; cleanup happens on the main loop.
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()

	return p, nil
}

// writerFunc adapts a function to io.Writer.
type writerFunc func([]byte)

func (f writerFunc) Write(b []byte) (int, error) {
	f(b)
	return len(b), nil
}

// bellFunc adapts a function to BellProvider.
type bellFunc func()

func (f bellFunc) Ring() { f() }

// ringBell forwards the bell unless it falls inside the suppress window.
func (p *PtyIO) ringBell() {
	now := time.Now()
	if now.Sub(p.lastBell) < p.bellSuppress {
		return
	}
	p.lastBell = now
	if p.bell != nil {
		p.bell.Ring()
	}
}

// Run is the session's main loop: it multiplexes child output, outbound
// drain readiness, and child exit until the context is canceled or the pty
// closes. Child bytes are parsed in arrival order, a bounded chunk per
// iteration.
func (p *PtyIO) Run(ctx context.Context) error {
	defer p.Close()

	for {
		// Drain pending replies and keystrokes before blocking.
		if err := p.flushOutbound(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wakeWrite:
			// Loop around to flush.
		case chunk, ok := <-p.readCh:
			if !ok {
				return ErrPtyClosed
			}
			p.term.Write(chunk)
		case <-p.exited:
			// Parse anything already buffered, then stop.
			for {
				select {
				case chunk, ok := <-p.readCh:
					if !ok {
						return ErrPtyClosed
					}
					p.term.Write(chunk)
				default:
					return ErrPtyClosed
				}
			}
		}
	}
}

// enqueue appends bytes to the outbound buffer and wakes the writer.
func (p *PtyIO) enqueue(data []byte) {
	p.outMu.Lock()
	p.out = append(p.out, data...)
	p.outMu.Unlock()

	select {
	case p.wakeWrite <- struct{}{}:
	default:
	}
}

// flushOutbound writes the buffered bytes to the pty in atomic-size chunks.
// A short write leaves the remainder buffered for the next pass.
func (p *PtyIO) flushOutbound() error {
	for {
		p.outMu.Lock()
		if len(p.out) == 0 {
			// Shrink an oversized buffer back down once drained.
			if cap(p.out) > outboundShrink {
				p.out = nil
			}
			p.outMu.Unlock()
			return nil
		}
		n := len(p.out)
		if n > writeChunk {
			n = writeChunk
		}
		chunk := make([]byte, n)
		copy(chunk, p.out[:n])
		p.outMu.Unlock()

		written, err := p.f.Write(chunk)

		p.outMu.Lock()
		p.out = p.out[written:]
		p.outMu.Unlock()

		if err != nil {
			if errors.Is(err, io.ErrShortWrite) {
				continue
			}
			return err
		}
	}
}

// Send queues keystroke bytes for the child. With SRM reset (local echo),
// the bytes are also fed straight back into the parser.
func (p *PtyIO) Send(data []byte) {
	if !p.term.Mode(ModeSRM) {
		p.term.Write(data)
	}
	p.enqueue(data)
}

// SendPaste queues pasted text, adding the bracketed-paste envelope when
// mode 2004 is set.
func (p *PtyIO) SendPaste(data []byte) {
	if p.term.PrivateMode(ModeBracketPaste) {
		wrapped := make([]byte, 0, len(data)+12)
		wrapped = append(wrapped, "\x1b[200~"...)
		wrapped = append(wrapped, data...)
		wrapped = append(wrapped, "\x1b[201~"...)
		p.Send(wrapped)
		return
	}
	p.Send(data)
}

// Resize propagates a new geometry to both the emulator and the child's pty.
func (p *PtyIO) Resize(rows, cols int) error {
	if err := p.term.Resize(rows, cols); err != nil {
		return err
	}
	return pty.Setsize(p.f, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Close releases the pty. Safe to call more than once.
func (p *PtyIO) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.f.Close()
	})
	return err
}
