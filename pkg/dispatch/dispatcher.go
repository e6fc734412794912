// ABOUTME: Decoder dispatcher
// ABOUTME: Owns the set of open decoder streams and their shared logging and metrics
package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
)

var (
	// ErrCodecMismatch is returned when a payload type differs from the
	// stream's negotiated codec
	ErrCodecMismatch = errors.New("dispatch: codec does not match stream")

	// ErrStreamNotFound is returned for an unknown stream id
	ErrStreamNotFound = errors.New("dispatch: stream not found")

	// ErrDispatcherClosed is returned by Open after Close
	ErrDispatcherClosed = errors.New("dispatch: dispatcher closed")
)

// Config configures a Dispatcher
type Config struct {
	// Registerer receives the dispatch metrics. Nil disables registration.
	Registerer prometheus.Registerer

	// Logger defaults to the logrus standard logger
	Logger logrus.FieldLogger

	// NewDecoder defaults to decode.New
	NewDecoder func(decode.Type) (decode.Decoder, error)
}

// Dispatcher creates decoder streams and tracks them by id
type Dispatcher struct {
	log        logrus.FieldLogger
	metrics    *Metrics
	newDecoder func(decode.Type) (decode.Decoder, error)

	mu      sync.Mutex
	streams map[string]*Stream
	closed  bool
}

// New creates a dispatcher
func New(cfg Config) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	newDecoder := cfg.NewDecoder
	if newDecoder == nil {
		newDecoder = decode.New
	}
	return &Dispatcher{
		log:        log,
		metrics:    NewMetrics(cfg.Registerer),
		newDecoder: newDecoder,
		streams:    make(map[string]*Stream),
	}
}

// Metrics returns the dispatcher's collectors
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Open creates a stream decoding t
func (d *Dispatcher) Open(t decode.Type) (*Stream, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrDispatcherClosed
	}

	dec, err := d.newDecoder(t)
	if err != nil {
		d.log.WithField("codec", t.String()).Warnf("dispatch: failed to open stream: %v", err)
		return nil, fmt.Errorf("failed to open %s stream: %w", t, err)
	}

	s := &Stream{
		id:      uuid.NewString(),
		owner:   d,
		decoder: dec,
	}
	s.log = d.log.WithField("stream", s.id)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = dec.Close()
		return nil, ErrDispatcherClosed
	}
	d.streams[s.id] = s
	d.mu.Unlock()

	d.metrics.StreamsActive.Inc()
	s.log.WithField("codec", t.String()).Info("dispatch: stream opened")
	return s, nil
}

// Stream returns the open stream with id
func (d *Dispatcher) Stream(id string) (*Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, id)
	}
	return s, nil
}

// Remove closes and forgets the stream with id. A call in progress on the
// stream finishes first; later calls return ErrClosed.
func (d *Dispatcher) Remove(id string) error {
	s, err := d.Stream(id)
	if err != nil {
		return err
	}
	return s.Close()
}

// Len returns the number of open streams
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

// Close closes every open stream. Open fails afterwards.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	streams := make([]*Stream, 0, len(d.streams))
	for _, s := range d.streams {
		streams = append(streams, s)
	}
	d.mu.Unlock()

	var errs []error
	for _, s := range streams {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// forget drops id from the table
func (d *Dispatcher) forget(id string) {
	d.mu.Lock()
	_, ok := d.streams[id]
	delete(d.streams, id)
	d.mu.Unlock()
	if ok {
		d.metrics.StreamsActive.Dec()
	}
}
