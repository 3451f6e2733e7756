// Package notify provides Notifier adapters for scan announcements: a plain
// log writer, an HTTP logbook client, and callback/channel adapters for
// embedding.
package notify

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/photonworks/ScanFlow/internal/ports"
)

// ErrChannelClosed is returned when a channel notifier is posted to after
// being closed.
var ErrChannelClosed = errors.New("scanflow: channel notifier closed")

// NewLogNotifier writes announcements to w, one per Post. A nil writer
// falls back to the standard logger.
func NewLogNotifier(w io.Writer) ports.Notifier {
	return &logNotifier{w: w}
}

type logNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *logNotifier) Post(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		log.Print(msg)
		return nil
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, err := io.WriteString(l.w, msg)
	return err
}

// HTTPConfig configures the logbook notifier.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
}

// NewHTTPNotifier posts announcements as plain text to an electronic
// logbook endpoint. The client timeout bounds every Post.
func NewHTTPNotifier(cfg HTTPConfig) (ports.Notifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("notify: url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type httpNotifier struct {
	url    string
	client *http.Client
}

func (h *httpNotifier) Post(msg string) error {
	resp, err := h.client.Post(h.url, "text/plain", strings.NewReader(msg))
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: logbook returned %s", resp.Status)
	}
	return nil
}

// NewCallbackNotifier adapts a plain function into a Notifier so callers
// can plug arbitrary sinks without defining structs.
func NewCallbackNotifier(fn func(string) error) ports.Notifier {
	return &callbackNotifier{fn: fn}
}

type callbackNotifier struct {
	fn func(string) error
}

func (c *callbackNotifier) Post(msg string) error {
	if c.fn == nil {
		return fmt.Errorf("notify: nil callback handler")
	}
	return c.fn(msg)
}

// NewChannelNotifier exposes announcements via a channel; it returns the
// notifier, the read-only channel, and a close function the caller should
// invoke during shutdown.
func NewChannelNotifier(buffer int) (ports.Notifier, <-chan string, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan string, buffer)
	n := &channelNotifier{
		ch:     ch,
		closed: make(chan struct{}),
	}
	return n, ch, func() { n.close() }
}

type channelNotifier struct {
	ch     chan string
	closed chan struct{}
	once   sync.Once
}

func (n *channelNotifier) Post(msg string) error {
	select {
	case <-n.closed:
		return ErrChannelClosed
	default:
	}

	select {
	case <-n.closed:
		return ErrChannelClosed
	case n.ch <- msg:
		return nil
	}
}

func (n *channelNotifier) close() {
	n.once.Do(func() {
		close(n.closed)
		close(n.ch)
	})
}
