// ABOUTME: Opus packet duration parsing
// ABOUTME: Reads the TOC byte and frame count code of an Opus packet
package opus

// Error codes shared with libopus
const (
	codeBadArg        = -1
	codeInvalidPacket = -4
)

// samplesPerFrame48k returns the frame size encoded in a TOC byte at 48 kHz
func samplesPerFrame48k(toc byte) int {
	config := toc >> 3
	switch {
	case config < 12: // SILK: 10, 20, 40, 60 ms
		return [4]int{480, 960, 1920, 2880}[config&3]
	case config < 16: // Hybrid: 10, 20 ms
		return [2]int{480, 960}[config&1]
	default: // CELT: 2.5, 5, 10, 20 ms
		return [4]int{120, 240, 480, 960}[config&3]
	}
}

// frameCount returns the number of frames in a packet or a negative code
func frameCount(packet []byte) int {
	if len(packet) < 1 {
		return codeBadArg
	}
	switch packet[0] & 0x3 {
	case 0:
		return 1
	case 1, 2:
		return 2
	default:
		if len(packet) < 2 {
			return codeInvalidPacket
		}
		return int(packet[1] & 0x3F)
	}
}

// PacketSamples returns the samples per channel a packet decodes to at
// sampleRate, or a negative libopus error code.
func PacketSamples(packet []byte, sampleRate int) int {
	frames := frameCount(packet)
	if frames < 0 {
		return frames
	}
	if frames == 0 {
		return codeInvalidPacket
	}
	samples := frames * samplesPerFrame48k(packet[0])
	// More than 120 ms is invalid
	if samples > 5760 {
		return codeInvalidPacket
	}
	return samples * sampleRate / 48000
}
