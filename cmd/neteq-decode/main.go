// ABOUTME: Entry point for the rtpdump decoder
// ABOUTME: Decodes an RTP capture to raw 16-bit PCM through the dispatch layer
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/audiodecoder/internal/config"
	"github.com/Resonate-Protocol/audiodecoder/internal/playout"
	"github.com/Resonate-Protocol/audiodecoder/internal/rtpdump"
	"github.com/Resonate-Protocol/audiodecoder/internal/version"
	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/resample"
	"github.com/Resonate-Protocol/audiodecoder/pkg/dispatch"
	_ "github.com/Resonate-Protocol/audiodecoder/pkg/codec/opus"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file (default: built-in payload map)")
	inPath      = flag.String("in", "", "Input rtpdump file")
	outPath     = flag.String("out", "", "Output raw s16le file (default: stdout)")
	rate        = flag.Int("rate", -1, "Output sample rate, 0 keeps the codec rate (default: from config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", version.Product, version.Version, version.Manufacturer)
		return
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)

	if err := run(log); err != nil {
		log.Fatalf("%s: %v", version.Product, err)
	}
}

func run(log *logrus.Logger) error {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *rate >= 0 {
		cfg.Output.SampleRate = *rate
		if err := cfg.Output.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.Logging.Apply(log); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("-in is required")
	}

	payloadTypes, err := cfg.Decoders()
	if err != nil {
		return err
	}

	in, err := os.Open(*inPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	reader, err := rtpdump.NewReader(bufio.NewReader(in))
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	w := bufio.NewWriter(out)
	defer func() { _ = w.Flush() }()

	reg := prometheus.NewRegistry()
	if cfg.Metrics.Address != "" {
		serveMetrics(log, reg, cfg.Metrics.Address)
	}

	d := dispatch.New(dispatch.Config{Registerer: reg, Logger: log})
	defer func() { _ = d.Close() }()

	driver := playout.NewDriver(playout.Config{
		Dispatcher:   d,
		PayloadTypes: payloadTypes,
		Silence:      cfg.Playout.PLC == config.PLCSilence,
		Logger:       log,
	})
	defer func() { _ = driver.Close() }()

	sink := &pcmSink{w: w, rate: cfg.Output.SampleRate}

	log.WithFields(logrus.Fields{
		"input":  *inPath,
		"source": reader.Header().Addr,
		"rate":   cfg.Output.SampleRate,
	}).Info("decoding capture")

	for {
		p, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		// arrival time in 8 kHz units; iSAC rescales internally
		arrival := uint32(p.Offset.Milliseconds() * 8)
		if err := driver.Push(p.RTP, arrival); err != nil {
			log.WithField("seq", p.RTP.SequenceNumber).Warnf("skipping packet: %v", err)
			continue
		}
		if err := driver.Drain(sink.write); err != nil {
			return err
		}
	}

	stats := driver.Stats()
	log.WithFields(logrus.Fields{
		"received":  stats.Received,
		"decoded":   stats.Decoded,
		"concealed": stats.Concealed,
		"dropped":   stats.Dropped,
		"samples":   sink.samples,
	}).Info("decoding finished")
	for pt, f := range driver.Formats() {
		log.WithFields(logrus.Fields{
			"pt":       pt,
			"codec":    f.Codec,
			"rate":     f.SampleRate,
			"channels": f.Channels,
		}).Info("payload type decoded")
	}
	return nil
}

// pcmSink resamples frames to the output rate and writes them
type pcmSink struct {
	w         io.Writer
	rate      int
	in        audio.Format
	resampler *resample.Resampler
	buf       []byte
	samples   int64
}

func (s *pcmSink) write(f audio.Frame) error {
	if s.rate > 0 && f.SampleRate != s.rate {
		if in := f.Format(); s.resampler == nil || in != s.in {
			s.in = in
			s.resampler = resample.New(in.SampleRate, s.rate, in.Channels)
		}
		f = s.resampler.Frame(f)
	}
	s.buf = audio.AppendLE(s.buf[:0], f.Samples)
	s.samples += int64(len(f.Samples))
	_, err := s.w.Write(s.buf)
	return err
}

func serveMetrics(log *logrus.Logger, reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.WithField("address", addr).Info("serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server failed: %v", err)
		}
	}()
}
