// Package internal_terminal adapts the recorder's UI ports to a terminal:
// prompts read answers from an input stream and status updates are printed.
package internal_terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
)

type Terminal struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	prompt string
	nav    chan string

	reader  sync.Once
	lines   chan string
	readErr error
}

// New builds a terminal; prompt is the consent question shown before the
// microphone is opened.
func New(in io.Reader, out io.Writer, prompt string) *Terminal {
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: prompt,
		nav:    make(chan string, 1),
		lines:  make(chan string),
	}
}

// readLoop is the only goroutine reading input. A line stays pending until
// some ReadLine takes it. lines is closed after the first read error.
func (t *Terminal) readLoop() {
	for {
		line, err := t.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if err == nil || line != "" {
			t.lines <- line
		}
		if err != nil {
			t.readErr = err
			close(t.lines)
			return
		}
	}
}

// ReadLine blocks for one line of input. It returns ctx.Err() when the
// context ends first; a line arriving later is kept for the next call.
func (t *Terminal) ReadLine(ctx context.Context) (string, error) {
	t.reader.Do(func() { go t.readLoop() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return "", t.readErr
		}
		return line, nil
	}
}

func (t *Terminal) ask(ctx context.Context, question string) (bool, error) {
	t.mu.Lock()
	fmt.Fprintf(t.out, "❓ %s [y/N] ", question)
	t.mu.Unlock()
	line, err := t.ReadLine(ctx)
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes", "نعم":
		return true, nil
	default:
		return false, nil
	}
}

// Confirm implements the microphone consent prompt.
func (t *Terminal) Confirm(ctx context.Context) (bool, error) {
	return t.ask(ctx, t.prompt)
}

func (t *Terminal) ShowDenied() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "🎙️  %s\n", t.prompt)
}

// Confirmer asks destructive-action questions on the same terminal.
func (t *Terminal) Confirmer() *confirmer { return &confirmer{t} }

type confirmer struct{ t *Terminal }

func (c *confirmer) Confirm(ctx context.Context, question string) (bool, error) {
	return c.t.ask(ctx, question)
}

// Print writes one plain line.
func (t *Terminal) Print(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}

func (t *Terminal) Show(msg internal_status.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch msg.Level {
	case internal_status.LevelSuccess:
		fmt.Fprintf(t.out, "✅ %s\n", msg.Text)
	case internal_status.LevelWarning:
		fmt.Fprintf(t.out, "⚠️  %s\n", msg.Text)
	case internal_status.LevelError:
		fmt.Fprintf(t.out, "❌ %s\n", msg.Text)
	default:
		fmt.Fprintf(t.out, "ℹ️  %s\n", msg.Text)
	}
}

func (t *Terminal) Navigate(target string) {
	t.mu.Lock()
	fmt.Fprintf(t.out, "➡️  %s\n", target)
	t.mu.Unlock()
	select {
	case t.nav <- target:
	default:
	}
}

// Navigations delivers redirect targets; a target nobody reads is dropped.
func (t *Terminal) Navigations() <-chan string { return t.nav }

func (t *Terminal) Activate(ref, mime string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "🔊 %s (%s)\n", ref, mime)
}

func (t *Terminal) Deactivate() {}

// Clear has nothing to reset; the file path is an argument, not a widget.
func (t *Terminal) Clear() {}
