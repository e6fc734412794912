// ABOUTME: Tests for the dispatch facade
// ABOUTME: Stream lifecycle, capability routing, codec switching and metrics
package dispatch

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/pion/rtp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec/codectest"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *codectest.Handles) {
	t.Helper()

	h := &codectest.Handles{}
	codec.ILBC.Register(codectest.ILBCFactory(h))
	codec.ISAC.Register(codectest.ISACFactory(h))
	codec.ISACFix.Register(codectest.ISACFixFactory(h))
	codec.G722.Register(codectest.G722Factory(h))
	codec.Opus.Register(codectest.OpusFactory(h))
	codec.CNG.Register(codectest.CNGFactory(h))
	t.Cleanup(func() {
		codec.ILBC.Unregister()
		codec.ISAC.Unregister()
		codec.ISACFix.Unregister()
		codec.G722.Unregister()
		codec.Opus.Unregister()
		codec.CNG.Unregister()
	})

	log := logrus.New()
	log.SetOutput(io.Discard)

	d := New(Config{Registerer: prometheus.NewRegistry(), Logger: log})
	t.Cleanup(func() { _ = d.Close() })
	return d, h
}

func TestOpenAndLookup(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypePCMU)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, decode.TypePCMU, s.Type())
	assert.Equal(t, 1, d.Len())

	found, err := d.Stream(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, found)

	_, err = d.Stream("missing")
	assert.ErrorIs(t, err, ErrStreamNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.Metrics().StreamsActive))
}

func TestOpenRejectsUnknownType(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.Type(-1))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, decode.ErrConfiguration)
	assert.Equal(t, 0, d.Len())
}

func TestPacketDurationScenarios(t *testing.T) {
	d, _ := newTestDispatcher(t)

	tests := []struct {
		typ      decode.Type
		size     int
		expected int
	}{
		{decode.TypePCMU, 160, 160},
		{decode.TypePCM16B, 320, 160},
		{decode.TypeG722, 160, 320},
	}
	for _, tt := range tests {
		s, err := d.Open(tt.typ)
		require.NoError(t, err)

		n, err := s.PacketDuration(tt.typ, make([]byte, tt.size))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, n, tt.typ.String())
	}
}

func TestAbsentCapabilities(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypePCMU)
	require.NoError(t, err)

	_, err = s.DecodePlc(1)
	assert.ErrorIs(t, err, decode.ErrUnsupported)

	_, err = s.DecodeRedundant(decode.TypePCMU, []byte{1})
	assert.ErrorIs(t, err, decode.ErrUnsupported)

	_, err = s.ErrorCode()
	assert.ErrorIs(t, err, decode.ErrUnsupported)

	_, err = s.Generate(80, true)
	assert.ErrorIs(t, err, decode.ErrUnsupported)

	assert.NoError(t, s.IncomingPacket([]byte{1, 2}, 1, 160, 170))
	assert.NoError(t, s.IncomingRTP(&rtp.Packet{Header: rtp.Header{SequenceNumber: 2}, Payload: []byte{3}}, 330))

	frame, err := s.Decode(decode.TypePCMU, make([]byte, 160))
	require.NoError(t, err)
	assert.Len(t, frame.Samples, 160)
}

func TestISACWithoutDurationEstimate(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeISAC)
	require.NoError(t, err)

	_, err = s.PacketDuration(decode.TypeISAC, make([]byte, 40))
	assert.ErrorIs(t, err, decode.ErrUnsupported)
}

func TestDecodeRejectsCodecMismatch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypePCMU)
	require.NoError(t, err)

	_, err = s.Decode(decode.TypePCMA, make([]byte, 160))
	assert.ErrorIs(t, err, ErrCodecMismatch)
	_, err = s.PacketDuration(decode.TypePCMA, make([]byte, 160))
	assert.ErrorIs(t, err, ErrCodecMismatch)
}

func TestIncomingRTPFeedsBandwidthEstimator(t *testing.T) {
	d, h := newTestDispatcher(t)

	s, err := d.Open(decode.TypeISAC)
	require.NoError(t, err)
	engine := h.Last().(*codectest.ISAC)

	pkt := &rtp.Packet{
		Header:  rtp.Header{SequenceNumber: 4242, Timestamp: 96000, PayloadType: 103},
		Payload: []byte{9, 8, 7},
	}
	require.NoError(t, s.IncomingRTP(pkt, 96320))

	assert.Equal(t, 1, engine.BwUpdates)
	assert.Equal(t, uint16(4242), engine.LastSeq)
	assert.Equal(t, uint32(96000), engine.LastSendTS)
	assert.Equal(t, uint32(96320), engine.LastArrivalTS)
	assert.Equal(t, []byte{9, 8, 7}, engine.LastPayload)

	code, err := s.ErrorCode()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestEngineErrorPassesThrough(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeILBC)
	require.NoError(t, err)

	_, err = s.Decode(decode.TypeILBC, []byte{1, 2, 3})
	assert.ErrorIs(t, err, decode.ErrDecode)

	var engineErr *decode.EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, codectest.CodeMalformed, engineErr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.Metrics().DecodeTotal.WithLabelValues("ilbc", resultError)))
}

func TestDecodeMetrics(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeILBC)
	require.NoError(t, err)

	_, err = s.Decode(decode.TypeILBC, make([]byte, codectest.ILBCFrameBytes))
	require.NoError(t, err)
	_, err = s.DecodePlc(2)
	require.NoError(t, err)

	m := d.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeTotal.WithLabelValues("ilbc", resultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PLCTotal.WithLabelValues("ilbc")))
	assert.Equal(t, float64(3*codectest.ILBCFrameSamples), testutil.ToFloat64(m.SamplesTotal.WithLabelValues("ilbc")))
}

func TestSetCodec(t *testing.T) {
	d, h := newTestDispatcher(t)

	s, err := d.Open(decode.TypeILBC)
	require.NoError(t, err)

	require.NoError(t, s.SetCodec(decode.TypeOpus2ch))
	assert.Equal(t, decode.TypeOpus2ch, s.Type())
	assert.Equal(t, decode.TypeOpus2ch.Capabilities(), s.Capabilities())
	assert.Equal(t, 1, h.Live(), "previous decoder should be freed")

	err = s.SetCodec(decode.TypeRED)
	assert.ErrorIs(t, err, decode.ErrConfiguration)
	assert.Equal(t, decode.TypeOpus2ch, s.Type(), "failed switch keeps the current decoder")
	assert.Equal(t, 1, h.Live())

	frame, err := s.Decode(decode.TypeOpus2ch, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Channels)
}

func TestComfortNoiseStream(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeCNGNB)
	require.NoError(t, err)

	frame, err := s.Decode(decode.TypeCNGNB, []byte{20})
	require.NoError(t, err)
	assert.Equal(t, audio.ComfortNoise, frame.Speech)

	noise, err := s.Generate(80, true)
	require.NoError(t, err)
	assert.Len(t, noise.Samples, 80)
	assert.Equal(t, audio.ComfortNoise, noise.Speech)
}

func TestStreamCloseReleasesHandles(t *testing.T) {
	d, h := newTestDispatcher(t)

	for i := 0; i < 4; i++ {
		s, err := d.Open(decode.TypeISACSWB)
		require.NoError(t, err)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	}
	assert.Equal(t, 0, h.Live())
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(d.Metrics().StreamsActive))
}

func TestClosedStream(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeOpus)
	require.NoError(t, err)
	require.NoError(t, d.Remove(s.ID()))

	assert.Equal(t, decode.TypeUnknown, s.Type())
	_, err = s.Decode(decode.TypeOpus, []byte{1})
	assert.ErrorIs(t, err, decode.ErrClosed)
	assert.ErrorIs(t, s.IncomingPacket([]byte{1}, 0, 0, 0), decode.ErrClosed)
	assert.ErrorIs(t, s.SetCodec(decode.TypePCMU), decode.ErrClosed)
	assert.ErrorIs(t, d.Remove(s.ID()), ErrStreamNotFound)
}

func TestStreamFormat(t *testing.T) {
	d, _ := newTestDispatcher(t)

	s, err := d.Open(decode.TypeOpus2ch)
	require.NoError(t, err)
	assert.Equal(t, audio.Format{Codec: "opus-2ch", SampleRate: 48000, Channels: 2}, s.Format())

	require.NoError(t, s.SetCodec(decode.TypePCM16BWB))
	assert.Equal(t, audio.Format{Codec: "pcm16b-wb", SampleRate: 16000, Channels: 1}, s.Format())

	require.NoError(t, s.Close())
	assert.Equal(t, audio.Format{}, s.Format())
}

func TestRemoveWhileDecoding(t *testing.T) {
	d, h := newTestDispatcher(t)

	s, err := d.Open(decode.TypeILBC)
	require.NoError(t, err)

	const workers = 4
	var wg sync.WaitGroup
	started := make(chan struct{}, workers)
	errs := make(chan error, workers)
	payload := make([]byte, codectest.ILBCFrameBytes)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			for {
				if _, err := s.Decode(decode.TypeILBC, payload); err != nil {
					errs <- err
					return
				}
				_, _ = s.DecodePlc(1)
				_ = s.IncomingPacket(payload, 0, 0, 0)
				_ = s.Capabilities()
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-started
	}

	require.NoError(t, d.Remove(s.ID()))
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, decode.ErrClosed)
	}
	assert.Equal(t, 0, h.Live())
	assert.Equal(t, 0, d.Len())
}

func TestDispatcherClose(t *testing.T) {
	d, h := newTestDispatcher(t)

	for _, typ := range []decode.Type{decode.TypeILBC, decode.TypeG722, decode.TypeCNGWB} {
		_, err := d.Open(typ)
		require.NoError(t, err)
	}
	require.Equal(t, 3, h.Live())

	require.NoError(t, d.Close())
	assert.Equal(t, 0, h.Live())
	assert.Equal(t, 0, d.Len())

	_, err := d.Open(decode.TypePCMU)
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestCustomDecoderFactory(t *testing.T) {
	var requested []decode.Type
	d := New(Config{
		Logger: logrus.New(),
		NewDecoder: func(t decode.Type) (decode.Decoder, error) {
			requested = append(requested, t)
			return decode.New(t)
		},
	})
	defer d.Close()

	_, err := d.Open(decode.TypePCM16B5ch)
	require.NoError(t, err)
	assert.Equal(t, []decode.Type{decode.TypePCM16B5ch}, requested)
}
