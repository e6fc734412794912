// ABOUTME: rtpdump file reader and writer
// ABOUTME: Parses rtpplay 1.0 captures into timed RTP packets
package rtpdump

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pion/rtp"
)

const (
	magic          = "#!rtpplay1.0 "
	fileHeaderSize = 16
	recordHeader   = 8
	// maxLine bounds the text line so a wrong file is rejected quickly
	maxLine = 128
)

// ErrFormat is returned for input that is not an rtpdump capture
var ErrFormat = errors.New("rtpdump: invalid format")

// Header describes the capture
type Header struct {
	Addr   string // address/port as written on the first line
	Start  time.Time
	Source net.IP
	Port   uint16
}

// Packet is one captured RTP packet
type Packet struct {
	// Offset is the time since the start of the capture
	Offset time.Duration
	RTP    *rtp.Packet
}

// Reader reads packets from an rtpdump stream
type Reader struct {
	r      *bufio.Reader
	header Header
}

// NewReader reads the file header
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	line, err := br.ReadSlice('\n')
	if err != nil || len(line) > maxLine || !strings.HasPrefix(string(line), magic) {
		return nil, fmt.Errorf("%w: missing rtpplay1.0 line", ErrFormat)
	}

	var hdr [fileHeaderSize]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: short file header: %w", ErrFormat, err)
	}

	sec := binary.BigEndian.Uint32(hdr[0:4])
	usec := binary.BigEndian.Uint32(hdr[4:8])
	src := make(net.IP, 4)
	copy(src, hdr[8:12])

	return &Reader{
		r: br,
		header: Header{
			Addr:   strings.TrimSpace(string(line[len(magic):])),
			Start:  time.Unix(int64(sec), int64(usec)*1000).UTC(),
			Source: src,
			Port:   binary.BigEndian.Uint16(hdr[12:14]),
		},
	}, nil
}

// Header returns the capture header
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next RTP packet. RTCP records (plen 0) are skipped.
// It returns io.EOF after the last record.
func (r *Reader) Next() (Packet, error) {
	for {
		var rec [recordHeader]byte
		if _, err := io.ReadFull(r.r, rec[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return Packet{}, io.EOF
			}
			return Packet{}, fmt.Errorf("%w: truncated record header: %w", ErrFormat, err)
		}

		length := int(binary.BigEndian.Uint16(rec[0:2]))
		plen := int(binary.BigEndian.Uint16(rec[2:4]))
		offset := binary.BigEndian.Uint32(rec[4:8])

		if length < recordHeader {
			return Packet{}, fmt.Errorf("%w: record length %d", ErrFormat, length)
		}
		body := make([]byte, length-recordHeader)
		if _, err := io.ReadFull(r.r, body); err != nil {
			return Packet{}, fmt.Errorf("%w: truncated record: %w", ErrFormat, err)
		}
		if plen == 0 {
			continue
		}
		if plen > len(body) {
			plen = len(body)
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(body[:plen]); err != nil {
			return Packet{}, fmt.Errorf("failed to parse rtp packet: %w", err)
		}
		return Packet{
			Offset: time.Duration(offset) * time.Millisecond,
			RTP:    pkt,
		}, nil
	}
}

// Writer writes an rtpdump stream
type Writer struct {
	w io.Writer
}

// NewWriter writes the file header for h
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if _, err := fmt.Fprintf(w, "%s%s\n", magic, h.Addr); err != nil {
		return nil, err
	}

	var hdr [fileHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(h.Start.Unix()))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(h.Start.Nanosecond()/1000))
	if ip4 := h.Source.To4(); ip4 != nil {
		copy(hdr[8:12], ip4)
	}
	binary.BigEndian.PutUint16(hdr[12:14], h.Port)
	if _, err := w.Write(hdr[:]); err != nil {
		return nil, err
	}
	return &Writer{w: w}, nil
}

// Write appends one packet record
func (w *Writer) Write(p Packet) error {
	raw, err := p.RTP.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal rtp packet: %w", err)
	}
	if len(raw)+recordHeader > 0xFFFF {
		return fmt.Errorf("%w: packet of %d bytes", ErrFormat, len(raw))
	}

	var rec [recordHeader]byte
	binary.BigEndian.PutUint16(rec[0:2], uint16(len(raw)+recordHeader))
	binary.BigEndian.PutUint16(rec[2:4], uint16(len(raw)))
	binary.BigEndian.PutUint32(rec[4:8], uint32(p.Offset/time.Millisecond))
	if _, err := w.w.Write(rec[:]); err != nil {
		return err
	}
	_, err = w.w.Write(raw)
	return err
}
