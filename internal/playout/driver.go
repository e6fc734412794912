// ABOUTME: RTP playout driver
// ABOUTME: Orders packets, decodes them per payload type and conceals gaps
package playout

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodecoder/pkg/dispatch"
)

// maxConceal bounds the frames synthesized for one gap
const maxConceal = 50

// defaultFrameMs sizes comfort noise before any speech was decoded
const defaultFrameMs = 20

// ErrUnknownPayloadType is returned by Push for unmapped payload types
var ErrUnknownPayloadType = errors.New("playout: unknown payload type")

// Config configures a Driver
type Config struct {
	Dispatcher   *dispatch.Dispatcher
	PayloadTypes map[uint8]decode.Type
	// Silence disables decoder concealment; gaps are filled with silence
	Silence bool
	Logger  logrus.FieldLogger
}

// Stats tracks driver counters
type Stats struct {
	Received  int64
	Decoded   int64
	Concealed int64
	Dropped   int64
}

// Driver turns an RTP packet sequence into decoded frames. It is not safe
// for concurrent use.
type Driver struct {
	dispatcher   *dispatch.Dispatcher
	payloadTypes map[uint8]decode.Type
	silence      bool
	log          logrus.FieldLogger

	streams map[uint8]*dispatch.Stream
	queue   *packetQueue

	haveSeq bool
	highest int64
	started bool
	cursor  int64

	speech    *dispatch.Stream
	last      audio.Frame
	cng       *dispatch.Stream
	cngActive bool

	stats Stats
}

// NewDriver creates a playout driver
func NewDriver(cfg Config) *Driver {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{
		dispatcher:   cfg.Dispatcher,
		payloadTypes: cfg.PayloadTypes,
		silence:      cfg.Silence,
		log:          log,
		streams:      make(map[uint8]*dispatch.Stream),
		queue:        newPacketQueue(),
	}
}

// extend unwraps a 16-bit sequence number against the highest seen
func (d *Driver) extend(seq uint16) int64 {
	if !d.haveSeq {
		d.haveSeq = true
		d.highest = int64(seq)
		return d.highest
	}
	ext := d.highest + int64(int16(seq-uint16(d.highest)))
	if ext > d.highest {
		d.highest = ext
	}
	return ext
}

// stream returns the stream for pt, opening it on first use
func (d *Driver) stream(pt uint8) (*dispatch.Stream, error) {
	if s, ok := d.streams[pt]; ok {
		return s, nil
	}
	t, ok := d.payloadTypes[pt]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPayloadType, pt)
	}
	s, err := d.dispatcher.Open(t)
	if err != nil {
		return nil, err
	}
	d.streams[pt] = s
	f := s.Format()
	d.log.WithFields(logrus.Fields{
		"pt":       pt,
		"codec":    f.Codec,
		"rate":     f.SampleRate,
		"channels": f.Channels,
	}).Debug("playout: stream opened")
	return s, nil
}

// Formats returns the format of each payload type seen so far
func (d *Driver) Formats() map[uint8]audio.Format {
	formats := make(map[uint8]audio.Format, len(d.streams))
	for pt, s := range d.streams {
		formats[pt] = s.Format()
	}
	return formats
}

// Push hands arrival timing to the payload type's decoder and queues the
// packet. arrival is in RTP timestamp units.
func (d *Driver) Push(pkt *rtp.Packet, arrival uint32) error {
	d.stats.Received++

	s, err := d.stream(pkt.PayloadType)
	if err != nil {
		d.stats.Dropped++
		return err
	}
	if err := s.IncomingRTP(pkt, arrival); err != nil {
		d.log.WithField("seq", pkt.SequenceNumber).Debugf("playout: bandwidth update failed: %v", err)
	}

	ext := d.extend(pkt.SequenceNumber)
	if d.started && ext < d.cursor {
		d.stats.Dropped++
		d.log.WithField("seq", pkt.SequenceNumber).Debug("playout: dropped late packet")
		return nil
	}
	if !d.queue.add(ext, pkt) {
		d.stats.Dropped++
		d.log.WithField("seq", pkt.SequenceNumber).Debug("playout: dropped duplicate packet")
	}
	return nil
}

// Drain decodes every queued packet in sequence order and passes the
// frames to emit. Missing sequence numbers are concealed.
func (d *Driver) Drain(emit func(audio.Frame) error) error {
	for d.queue.Len() > 0 {
		item := d.queue.next()
		if !d.started {
			d.started = true
			d.cursor = item.ext
		}

		if gap := item.ext - d.cursor; gap > 0 {
			if gap > maxConceal {
				d.log.WithField("missing", gap).Warn("playout: long gap, concealing the tail only")
				gap = maxConceal
			}
			for i := int64(0); i < gap; i++ {
				if err := d.conceal(emit); err != nil {
					return err
				}
			}
		}
		d.cursor = item.ext + 1

		if err := d.decode(item.pkt, emit); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) decode(pkt *rtp.Packet, emit func(audio.Frame) error) error {
	s := d.streams[pkt.PayloadType]

	if s.Type().IsComfortNoise() {
		return d.comfortNoise(s, pkt.Payload, emit)
	}

	frame, err := s.Decode(s.Type(), pkt.Payload)
	if err != nil {
		d.log.WithFields(logrus.Fields{"seq": pkt.SequenceNumber, "codec": s.Type().String()}).
			Warnf("playout: decode failed: %v", err)
		return d.replace(emit)
	}

	d.stats.Decoded++
	d.speech = s
	d.cngActive = false
	if len(frame.Samples) > 0 {
		d.last = frame
	}
	return emit(frame)
}

func (d *Driver) comfortNoise(s *dispatch.Stream, sid []byte, emit func(audio.Frame) error) error {
	if _, err := s.Decode(s.Type(), sid); err != nil {
		d.log.WithField("codec", s.Type().String()).Warnf("playout: SID update failed: %v", err)
		return d.replace(emit)
	}
	d.stats.Decoded++
	d.cng = s
	newPeriod := !d.cngActive
	d.cngActive = true
	return d.generate(newPeriod, emit)
}

// generate emits comfort noise lasting as long as the last speech frame
func (d *Driver) generate(newPeriod bool, emit func(audio.Frame) error) error {
	rate := d.cng.Type().SampleRateHz()
	samples := rate * defaultFrameMs / 1000
	if d.last.SampleRate > 0 {
		samples = d.last.SamplesPerChannel() * rate / d.last.SampleRate
	}
	frame, err := d.cng.Generate(samples, newPeriod)
	if err != nil {
		return fmt.Errorf("failed to generate comfort noise: %w", err)
	}
	return emit(frame)
}

// canConceal reports whether there is audio to conceal from
func (d *Driver) canConceal() bool {
	return d.cngActive || (d.speech != nil && d.last.SampleRate > 0)
}

// replace conceals an undecodable packet, or counts it dropped when nothing
// has been decoded yet
func (d *Driver) replace(emit func(audio.Frame) error) error {
	if !d.canConceal() {
		d.stats.Dropped++
		return nil
	}
	return d.conceal(emit)
}

// conceal emits one frame in place of a missing or undecodable packet
func (d *Driver) conceal(emit func(audio.Frame) error) error {
	if !d.canConceal() {
		return nil
	}
	d.stats.Concealed++
	if d.cngActive {
		return d.generate(false, emit)
	}

	if !d.silence && d.speech.Capabilities().Has(decode.CapPLC) {
		frame, err := d.speech.DecodePlc(1)
		if err == nil {
			return emit(frame)
		}
		d.log.WithField("codec", d.speech.Type().String()).Warnf("playout: concealment failed: %v", err)
	}
	return emit(audio.Silence(d.last.SamplesPerChannel(), d.last.Channels, d.last.SampleRate))
}

// Stats returns driver statistics
func (d *Driver) Stats() Stats {
	return d.stats
}

// Close closes the streams the driver opened
func (d *Driver) Close() error {
	var errs []error
	for pt, s := range d.streams {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(d.streams, pt)
	}
	return errors.Join(errs...)
}
