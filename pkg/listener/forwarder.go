package listener

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

// Forwarder sends datagrams to a redirect target without blocking the receive path.
type Forwarder struct {
	conn      net.Conn
	address   string
	queue     chan []byte
	sent      atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
	logErrors rate.Sometimes
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	l         *log.Logger
}

const forwardQueueSize = 1000

func NewForwarder(address string) (*Forwarder, error) {
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection to %s: %w", address, err)
	}
	return &Forwarder{
		conn:      conn,
		address:   address,
		queue:     make(chan []byte, forwardQueueSize),
		logErrors: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		l:         log.Default().Named("listener.forward"),
	}, nil
}

func (f *Forwarder) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-f.queue:
				if !ok {
					return
				}
				if _, err := f.conn.Write(data); err != nil {
					// e.g. connection refused while the target is not ready yet
					f.failed.Add(1)
					f.logErrors.Do(func() {
						f.l.Warn("forward failed",
							log.String("addr", f.address),
							log.Int64("failed", f.failed.Load()),
							log.ErrorField(err))
					})
					continue
				}
				f.sent.Add(1)
			}
		}
	}()
	f.l.Info("forwarding datagrams", log.String("addr", f.address))
}

// ForwardAsync queues a copy of data. If the queue is full the datagram is dropped.
func (f *Forwarder) ForwardAsync(data []byte) {
	c := make([]byte, len(data))
	copy(c, data)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- c:
	default:
		f.dropped.Add(1)
	}
}

func (f *Forwarder) Address() string {
	return f.address
}

// Stats returns the number of sent, dropped (queue full) and failed datagrams.
func (f *Forwarder) Stats() (sent, dropped, failed int64) {
	return f.sent.Load(), f.dropped.Load(), f.failed.Load()
}

func (f *Forwarder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()
	f.wg.Wait()
	return f.conn.Close()
}
