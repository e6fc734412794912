// Package decode turns RTP audio payloads into 16-bit PCM frames.
//
// Each Type names one codec variant. New builds its Decoder:
//
//	d, err := decode.New(decode.TypePCMU)
//	if err != nil {
//		return err
//	}
//	defer d.Close()
//	frame, err := d.Decode(payload)
//
// Beyond Decode, a variant may support packet duration estimation, loss
// concealment, redundancy decoding, bandwidth estimation, an engine error
// code, or comfort noise generation. These are separate interfaces; use a
// type assertion or check Type.Capabilities.
//
// G.711 and PCM16B engines are built in. The other codecs use engines
// registered with pkg/codec; see pkg/codec/opus for the libopus engine.
package decode
