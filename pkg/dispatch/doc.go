// Package dispatch is the entry point for decoding a negotiated codec.
//
// A Dispatcher opens Streams. Each Stream holds the decoder for the codec
// currently negotiated on it, checks that incoming payloads carry that codec,
// and turns optional operations the decoder lacks into decode.ErrUnsupported.
// IncomingPacket is the exception: it is a no-op for decoders without a
// bandwidth estimator.
package dispatch
