// ABOUTME: Per-stream decoder facade
// ABOUTME: Routes calls to the negotiated decoder and reports absent capabilities
package dispatch

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
)

// Stream is one decoding context holding one decoder at a time. Operations
// are serialized, so a stream may be closed or removed from another
// goroutine while its owner is decoding; later calls return ErrClosed.
type Stream struct {
	id    string
	owner *Dispatcher
	log   logrus.FieldLogger

	mu      sync.Mutex
	decoder decode.Decoder
	closed  bool
}

// ID returns the stream id
func (s *Stream) ID() string {
	return s.id
}

// Type returns the negotiated decoder type, or TypeUnknown once closed
func (s *Stream) Type() decode.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return decode.TypeUnknown
	}
	return s.decoder.Type()
}

// Format returns the output format of the current decoder, or the zero
// Format once closed
func (s *Stream) Format() audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Format{}
	}
	return s.decoder.Type().Format()
}

// Capabilities returns the optional operations of the current decoder
func (s *Stream) Capabilities() decode.Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return decode.Probe(s.decoder)
}

// SetCodec replaces the decoder with a new one for t. If t cannot be built
// the current decoder stays in place.
func (s *Stream) SetCodec(t decode.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return decode.ErrClosed
	}
	dec, err := s.owner.newDecoder(t)
	if err != nil {
		s.log.WithField("codec", t.String()).Warnf("dispatch: codec switch failed: %v", err)
		return fmt.Errorf("failed to switch to %s: %w", t, err)
	}

	old := s.decoder
	s.decoder = dec
	if err := old.Close(); err != nil {
		s.log.WithField("codec", old.Type().String()).Warnf("dispatch: failed to close decoder: %v", err)
	}
	s.log.WithFields(logrus.Fields{"from": old.Type().String(), "codec": t.String()}).Debug("dispatch: codec switched")
	return nil
}

// Init resets the decoder state
func (s *Stream) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return decode.ErrClosed
	}
	return s.decoder.Init()
}

// match checks that t is the negotiated codec. Callers hold s.mu.
func (s *Stream) match(t decode.Type) error {
	if s.closed {
		return decode.ErrClosed
	}
	if cur := s.decoder.Type(); t != cur {
		return fmt.Errorf("%w: got %s, stream decodes %s", ErrCodecMismatch, t, cur)
	}
	return nil
}

func unsupported(t decode.Type, op string) error {
	return fmt.Errorf("%w: %s does not implement %s", decode.ErrUnsupported, t, op)
}

// Decode decodes one payload of type t
func (s *Stream) Decode(t decode.Type, payload []byte) (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.match(t); err != nil {
		return audio.Frame{}, err
	}
	frame, err := s.decoder.Decode(payload)
	s.owner.metrics.observeDecode(t, len(frame.Samples), err)
	return frame, err
}

// DecodePlc conceals frames lost frames
func (s *Stream) DecodePlc(frames int) (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Frame{}, decode.ErrClosed
	}
	plc, ok := s.decoder.(decode.PLCDecoder)
	if !ok {
		return audio.Frame{}, unsupported(s.decoder.Type(), "loss concealment")
	}
	frame, err := plc.DecodePlc(frames)
	if err != nil {
		return audio.Frame{}, err
	}
	s.owner.metrics.observePlc(s.decoder.Type(), frames, len(frame.Samples))
	return frame, nil
}

// DecodeRedundant recovers a frame from the redundant data of a payload of
// type t
func (s *Stream) DecodeRedundant(t decode.Type, payload []byte) (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.match(t); err != nil {
		return audio.Frame{}, err
	}
	red, ok := s.decoder.(decode.RedundantDecoder)
	if !ok {
		return audio.Frame{}, unsupported(t, "redundant decoding")
	}
	frame, err := red.DecodeRedundant(payload)
	s.owner.metrics.observeDecode(t, len(frame.Samples), err)
	return frame, err
}

// PacketDuration returns the samples per channel in a payload of type t
func (s *Stream) PacketDuration(t decode.Type, payload []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.match(t); err != nil {
		return 0, err
	}
	est, ok := s.decoder.(decode.DurationEstimator)
	if !ok {
		return 0, unsupported(t, "packet duration")
	}
	return est.PacketDuration(payload)
}

// IncomingPacket feeds arrival timing to the decoder's bandwidth estimator.
// Decoders without one ignore the call and return nil.
func (s *Stream) IncomingPacket(payload []byte, seq uint16, rtpTimestamp, arrivalTimestamp uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return decode.ErrClosed
	}
	bwe, ok := s.decoder.(decode.BandwidthEstimator)
	if !ok {
		return nil
	}
	return bwe.IncomingPacket(payload, seq, rtpTimestamp, arrivalTimestamp)
}

// IncomingRTP is IncomingPacket for a parsed RTP packet
func (s *Stream) IncomingRTP(pkt *rtp.Packet, arrivalTimestamp uint32) error {
	return s.IncomingPacket(pkt.Payload, pkt.SequenceNumber, pkt.Timestamp, arrivalTimestamp)
}

// ErrorCode returns the decoder's engine error code
func (s *Stream) ErrorCode() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, decode.ErrClosed
	}
	ec, ok := s.decoder.(decode.ErrorCoder)
	if !ok {
		return 0, unsupported(s.decoder.Type(), "error codes")
	}
	return ec.ErrorCode(), nil
}

// Generate produces comfort noise from the last SID update
func (s *Stream) Generate(samples int, newPeriod bool) (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Frame{}, decode.ErrClosed
	}
	gen, ok := s.decoder.(decode.ComfortNoiseGenerator)
	if !ok {
		return audio.Frame{}, unsupported(s.decoder.Type(), "comfort noise generation")
	}
	frame, err := gen.Generate(samples, newPeriod)
	if err == nil {
		s.owner.metrics.SamplesTotal.WithLabelValues(s.decoder.Type().String()).Add(float64(len(frame.Samples)))
	}
	return frame, err
}

// Close releases the decoder and removes the stream from its dispatcher
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.owner.forget(s.id)

	t := s.decoder.Type()
	err := s.decoder.Close()
	s.decoder = nil
	s.log.WithField("codec", t.String()).Info("dispatch: stream closed")
	return err
}
