// ABOUTME: Tests for the rtpdump reader and writer
// ABOUTME: Round trips captures and rejects malformed input
package rtpdump

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPacket(seq uint16, ts uint32, payload []byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    0,
			SequenceNumber: seq,
			Timestamp:      ts,
			SSRC:           0x1234,
		},
		Payload: payload,
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 3, 1, 12, 0, 0, 250000000, time.UTC)
	w, err := NewWriter(&buf, Header{Addr: "127.0.0.1/5004", Start: start, Source: net.IPv4(10, 0, 0, 1), Port: 5004})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		pkt := testPacket(uint16(100+i), uint32(160*i), bytes.Repeat([]byte{byte(i)}, 160))
		require.NoError(t, w.Write(Packet{Offset: time.Duration(20*i) * time.Millisecond, RTP: pkt}))
	}

	r, err := NewReader(&buf)
	require.NoError(t, err)
	h := r.Header()
	assert.Equal(t, "127.0.0.1/5004", h.Addr)
	assert.Equal(t, start, h.Start)
	assert.Equal(t, "10.0.0.1", h.Source.String())
	assert.Equal(t, uint16(5004), h.Port)

	for i := 0; i < 3; i++ {
		p, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(20*i)*time.Millisecond, p.Offset)
		assert.Equal(t, uint16(100+i), p.RTP.SequenceNumber)
		assert.Equal(t, uint32(160*i), p.RTP.Timestamp)
		assert.Len(t, p.RTP.Payload, 160)
	}

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSkipsRTCPRecords(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Addr: "0.0.0.0/0"})
	require.NoError(t, err)

	rtcp := make([]byte, recordHeader+4)
	binary.BigEndian.PutUint16(rtcp[0:2], uint16(len(rtcp)))
	buf.Write(rtcp)
	require.NoError(t, w.Write(Packet{RTP: testPacket(7, 0, []byte{1})}))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	p, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), p.RTP.SequenceNumber)
}

func TestRejectsMalformedInput(t *testing.T) {
	_, err := NewReader(bytes.NewBufferString("RIFF....WAVE"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewReader(bytes.NewBufferString(magic + "1.2.3.4/5\nshort"))
	assert.ErrorIs(t, err, ErrFormat)

	var buf bytes.Buffer
	_, err = NewWriter(&buf, Header{Addr: "1.2.3.4/5"})
	require.NoError(t, err)
	buf.Write([]byte{0x00, 0x20, 0x00, 0x18, 0, 0, 0, 0, 1, 2})

	r, err := NewReader(&buf)
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrFormat)
}
