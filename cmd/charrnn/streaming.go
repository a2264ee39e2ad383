package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

type StreamMode string

const (
	StreamInstant    StreamMode = "instant"
	StreamSmooth     StreamMode = "smooth"
	StreamTypewriter StreamMode = "typewriter"
	StreamQuiet      StreamMode = "quiet"
)

func parseStreamMode(s string) (StreamMode, error) {
	switch m := StreamMode(strings.ToLower(strings.TrimSpace(s))); m {
	case StreamInstant, StreamSmooth, StreamTypewriter, StreamQuiet:
		return m, nil
	case "":
		return StreamInstant, nil
	default:
		return "", fmt.Errorf("unknown stream mode %q (instant, smooth, typewriter, quiet)", s)
	}
}

// StreamWriter prints generated characters as they arrive, in one of
// several pacing modes.
type StreamWriter struct {
	mode   StreamMode
	buffer *bufio.Writer

	mu            sync.Mutex
	batch         strings.Builder
	lastFlush     time.Time
	flushInterval time.Duration
	batchSize     int // flush after N characters

	accumulator strings.Builder
	rawOutput   bool

	stop chan struct{}
	once sync.Once
}

func NewStreamWriter(out io.Writer, mode StreamMode, rawOutput bool) *StreamWriter {
	w := &StreamWriter{
		mode:          mode,
		buffer:        bufio.NewWriterSize(out, 4096),
		flushInterval: 50 * time.Millisecond,
		batchSize:     32,
		lastFlush:     time.Now(),
		rawOutput:     rawOutput,
		stop:          make(chan struct{}),
	}
	if mode == StreamSmooth {
		go w.backgroundFlusher()
	}
	return w
}

// Write handles one chunk of generated text, usually a single character.
func (w *StreamWriter) Write(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.accumulator.WriteString(text)
	switch w.mode {
	case StreamInstant:
		w.emit(text)
		_ = w.buffer.Flush()
	case StreamSmooth:
		w.batch.WriteString(text)
		if w.batch.Len() >= w.batchSize || time.Since(w.lastFlush) >= w.flushInterval {
			w.flushBatch()
		}
	case StreamTypewriter:
		for _, r := range text {
			w.emit(string(r))
			_ = w.buffer.Flush()
		}
	case StreamQuiet:
	}
}

// Flush writes anything still pending, stops the background flusher and
// returns everything written so far.
func (w *StreamWriter) Flush() string {
	w.once.Do(func() { close(w.stop) })

	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.mode {
	case StreamQuiet:
		w.emit(w.accumulator.String())
	case StreamSmooth:
		w.flushBatch()
	}
	_ = w.buffer.Flush()
	return w.accumulator.String()
}

// emit must hold lock.
func (w *StreamWriter) emit(text string) {
	if w.rawOutput {
		text = escapeRawOutput(text)
	}
	_, _ = w.buffer.WriteString(text)
}

// flushBatch must hold lock.
func (w *StreamWriter) flushBatch() {
	if w.batch.Len() == 0 {
		return
	}
	w.emit(w.batch.String())
	_ = w.buffer.Flush()
	w.batch.Reset()
	w.lastFlush = time.Now()
}

func (w *StreamWriter) backgroundFlusher() {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			if time.Since(w.lastFlush) >= w.flushInterval {
				w.flushBatch()
			}
			w.mu.Unlock()
		}
	}
}

func escapeRawOutput(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(escapeRawOutputRune(r))
	}
	return b.String()
}

func escapeRawOutputRune(r rune) string {
	switch r {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\\':
		return `\\`
	default:
		if strconv.IsPrint(r) {
			return string(r)
		}
		return fmt.Sprintf(`\u%04x`, r)
	}
}
