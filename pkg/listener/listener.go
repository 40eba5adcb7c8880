// Package listener receives game datagrams via UDP and optionally forwards them.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
)

var ErrNotStarted = errors.New("listener not started")

// maxDatagram is larger than the largest packet of the 2024 format.
const maxDatagram = 2048

type Listener struct {
	mu          sync.Mutex
	ctx         context.Context
	settings    config.Settings
	factory     SocketFactory
	sock        UDPSocket
	fwd         *Forwarder
	buf         []byte
	pollTimeout time.Duration
	readBuffer  int
	l           *log.Logger
}

type Option func(*Listener)

// WithPollTimeout sets how long Poll waits for a datagram.
func WithPollTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.pollTimeout = d
	}
}

func WithSocketFactory(f SocketFactory) Option {
	return func(l *Listener) {
		l.factory = f
	}
}

func WithReadBuffer(bytes int) Option {
	return func(l *Listener) {
		l.readBuffer = bytes
	}
}

func New(settings config.Settings, opts ...Option) *Listener {
	ret := &Listener{
		settings:    settings,
		factory:     netFactory{},
		buf:         make([]byte, maxDatagram),
		pollTimeout: 20 * time.Millisecond,
		readBuffer:  1 << 20,
		l:           log.Default().Named("listener"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Start binds the socket. Bind failures are returned to the caller.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.settings.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx = ctx
	sock, err := l.bind(l.settings.Port)
	if err != nil {
		return err
	}
	l.sock = sock
	if l.settings.Redirect.Enabled {
		l.fwd = l.startForwarder(l.settings)
	}
	return nil
}

func (l *Listener) bind(port int) (UDPSocket, error) {
	sock, err := l.factory.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", port, err)
	}
	if err := sock.SetReadBuffer(l.readBuffer); err != nil {
		l.l.Warn("could not set receive buffer", log.Int("bytes", l.readBuffer), log.ErrorField(err))
	}
	l.l.Info("listening", log.String("addr", sock.LocalAddr().String()))
	return sock, nil
}

// a forwarder that can't be created is logged, receiving continues without it.
func (l *Listener) startForwarder(s config.Settings) *Forwarder {
	fwd, err := NewForwarder(s.RedirectAddr())
	if err != nil {
		l.l.Warn("redirect disabled", log.ErrorField(err))
		return nil
	}
	fwd.Start(l.ctx)
	return fwd
}

// Poll waits at most the poll timeout for a datagram. It returns false if
// nothing arrived. A socket closed by a concurrent Rebind or Close also
// reports "no data". Other receive errors are returned.
func (l *Listener) Poll() ([]byte, bool, error) {
	l.mu.Lock()
	sock, fwd := l.sock, l.fwd
	l.mu.Unlock()
	if sock == nil {
		return nil, false, nil
	}
	if err := sock.SetReadDeadline(time.Now().Add(l.pollTimeout)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, false, nil
		}
		return nil, false, err
	}
	n, _, err := sock.ReadFromUDP(l.buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, false, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("receive failed: %w", err)
	}
	data := make([]byte, n)
	copy(data, l.buf[:n])
	if fwd != nil {
		fwd.ForwardAsync(data)
	}
	return data, true, nil
}

// Rebind applies new settings. A changed port closes the socket and binds
// the new one. If the new port cannot be bound the previous settings stay active.
func (l *Listener) Rebind(s config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sock == nil {
		return ErrNotStarted
	}
	if s.Port != l.settings.Port {
		sock, err := l.bind(s.Port)
		if err != nil {
			return err
		}
		old := l.sock
		l.sock = sock
		if err := old.Close(); err != nil {
			l.l.Debug("closing previous socket", log.ErrorField(err))
		}
	}
	if s.Redirect != l.settings.Redirect {
		if l.fwd != nil {
			if err := l.fwd.Close(); err != nil {
				l.l.Debug("closing forwarder", log.ErrorField(err))
			}
			l.fwd = nil
		}
		if s.Redirect.Enabled {
			l.fwd = l.startForwarder(s)
		}
	}
	l.settings = s
	return nil
}

func (l *Listener) Settings() config.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// Addr returns the bound address or nil if the listener is not started.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sock == nil {
		return nil
	}
	return l.sock.LocalAddr()
}

// Forwarder returns the active forwarder, nil if redirect is disabled.
func (l *Listener) Forwarder() *Forwarder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fwd
}

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	if l.fwd != nil {
		errs = append(errs, l.fwd.Close())
		l.fwd = nil
	}
	if l.sock != nil {
		errs = append(errs, l.sock.Close())
		l.sock = nil
	}
	return errors.Join(errs...)
}
