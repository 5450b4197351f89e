package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justyntemme/neuropixelscar/pkg/car"
	"github.com/justyntemme/neuropixelscar/pkg/config"
	"github.com/justyntemme/neuropixelscar/pkg/dsp"
	"github.com/justyntemme/neuropixelscar/pkg/dsp/filter"
	"github.com/justyntemme/neuropixelscar/pkg/framework/debug"
	"github.com/justyntemme/neuropixelscar/pkg/framework/process"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

type runOptions struct {
	blockSize int
	stats     bool
	params    []string // name=value processor parameter settings
}

// streamIO is the file side of one stream
type streamIO struct {
	info    *stream.Info
	rows    [][]float32 // full-capacity host buffers, one per channel
	reader  *Reader
	writer  *Writer
	files   []*os.File
	filters []*filter.Biquad // applied to probe channels before referencing
	done    bool

	before, after []debug.RunningStats
	analyzer      *debug.SignalAnalyzer
	flagged       int // referenced channel blocks that saturated or held NaN
}

// run references every configured stream in lockstep until all inputs are
// exhausted
func run(cfg *config.Config, opts runOptions, logger *debug.Logger) error {
	streams, err := cfg.Topology()
	if err != nil {
		return err
	}
	strategy, err := cfg.ParsedStrategy()
	if err != nil {
		return err
	}

	logger.Info("%s %s, cpu %s", appName, appVersion, dsp.Features())

	host := process.NewContext(streams, opts.blockSize)

	procOpts := []car.Option{
		car.WithStrategy(strategy),
		car.WithMaxBlockSize(cfg.MaxBlockSize),
		car.WithLogger(logger.With("car")),
	}
	var profiler *debug.Profiler
	if cfg.Profile {
		profiler = debug.NewProfiler(1000)
		profiler.SetHost(fmt.Sprintf("%s %s, cpu %s", appName, appVersion, dsp.Features()))
		procOpts = append(procOpts, car.WithProfiler(profiler))
	}
	proc := car.NewProcessor(procOpts...)
	for _, kv := range opts.params {
		name, value, _ := strings.Cut(kv, "=")
		if err := proc.SetParameterText(name, value); err != nil {
			return err
		}
	}
	proc.UpdateSettings(host)
	logger.Info("parameters: %s", proc.ParameterSummary())

	ios, err := openStreams(cfg, host, opts.stats)
	defer closeStreams(ios, logger)
	if err != nil {
		return err
	}

	blocks := 0
	for {
		active, err := readBlocks(host, ios)
		if err != nil {
			return err
		}
		if active == 0 {
			break
		}

		for _, s := range ios {
			if s.done {
				continue
			}
			for _, f := range s.filters {
				host.ProcessStream(s.info.ID, func(ch int, samples []float32) {
					f.Process(samples, ch)
				})
			}
			addStats(s.before, s.rows, host.NumSamples(s.info.ID))
		}

		proc.ProcessBlock(host)
		blocks++

		for _, s := range ios {
			if s.done {
				continue
			}
			n := host.NumSamples(s.info.ID)
			addStats(s.after, s.rows, n)
			if s.analyzer != nil {
				s.checkBlock(logger, blocks, n)
			}
			if s.writer != nil {
				if err := s.writer.WriteBlock(s.rows, n); err != nil {
					return fmt.Errorf("%s: %w", s.info.Name, err)
				}
			}
		}
	}

	for _, s := range ios {
		if s.writer != nil {
			if err := s.writer.Flush(); err != nil {
				return fmt.Errorf("%s: flush output: %w", s.info.Name, err)
			}
		}
	}

	logger.Info("processed %d blocks of up to %d samples", blocks, opts.blockSize)
	for _, s := range ios {
		if opts.stats {
			logStats(logger, s, proc.DisplayName(s.info.ID))
		}
	}
	if profiler != nil {
		logger.Info("%s", profiler.Report())
	}
	return nil
}

// openStreams opens the input and output of every stream that has one
func openStreams(cfg *config.Config, host *process.Context, stats bool) ([]*streamIO, error) {
	var ios []*streamIO
	for _, sc := range cfg.Streams {
		info := host.Streams().Get(stream.ID(sc.ID))
		s := &streamIO{info: info, rows: make([][]float32, info.ChannelCount)}
		for ch := range s.rows {
			s.rows[ch] = host.Channel(info.GlobalChannelIndex(ch))
		}
		ios = append(ios, s)

		if sc.Input == "" {
			s.done = true
			continue
		}
		in, err := os.Open(sc.Input)
		if err != nil {
			return ios, fmt.Errorf("%s: open input: %w", info.Name, err)
		}
		s.files = append(s.files, in)
		s.reader = NewReader(in, info.ChannelCount)

		if sc.Output != "" {
			out, err := os.Create(sc.Output)
			if err != nil {
				return ios, fmt.Errorf("%s: create output: %w", info.Name, err)
			}
			s.files = append(s.files, out)
			s.writer = NewWriter(out, info.ChannelCount)
		}

		probeChannels := min(info.ChannelCount, car.ProbeChannels)
		if sc.HighpassHz > 0 {
			f := filter.NewBiquad(probeChannels)
			f.SetHighpass(info.SampleRate, sc.HighpassHz, dsp.DefaultQ)
			s.filters = append(s.filters, f)
		}
		if sc.NotchHz > 0 {
			f := filter.NewBiquad(probeChannels)
			f.SetNotch(info.SampleRate, sc.NotchHz, dsp.NotchQ)
			s.filters = append(s.filters, f)
		}
		if stats {
			s.before = make([]debug.RunningStats, probeChannels)
			s.after = make([]debug.RunningStats, probeChannels)
			s.analyzer = debug.NewSignalAnalyzer()
			if sc.HighpassHz == 0 {
				// raw probe channels sit on their own electrode offsets
				s.analyzer.DCThreshold = 0
			}
		}
	}
	return ios, nil
}

func closeStreams(ios []*streamIO, logger *debug.Logger) {
	for _, s := range ios {
		for _, f := range s.files {
			if err := f.Close(); err != nil {
				logger.Warn("%s: close %s: %v", s.info.Name, f.Name(), err)
			}
		}
	}
}

// readBlocks fills the host buffers of every active stream and sets its
// block length. A stream whose input is exhausted gets a zero-length block
// from then on. It returns the number of streams that read data.
func readBlocks(host *process.Context, ios []*streamIO) (int, error) {
	active := 0
	for _, s := range ios {
		n := 0
		if !s.done {
			var err error
			n, err = s.reader.ReadBlock(s.rows)
			switch {
			case errors.Is(err, io.EOF):
				s.done = true
			case err != nil:
				return 0, fmt.Errorf("%s: %w", s.info.Name, err)
			}
		}
		if err := host.SetNumSamples(s.info.ID, n); err != nil {
			return 0, err
		}
		if n > 0 {
			active++
		}
	}
	return active, nil
}

func addStats(stats []debug.RunningStats, rows [][]float32, n int) {
	for ch := range stats {
		stats[ch].Add(rows[ch][:n])
	}
}

// checkBlock analyzes the referenced probe channels of the current block.
// The first problem of a stream is logged; later ones are only counted.
func (s *streamIO) checkBlock(logger *debug.Logger, block, n int) {
	for ch := range s.after {
		issues := s.analyzer.Check(s.rows[ch][:n], s.info.Name)
		if len(issues) == 0 {
			continue
		}
		s.flagged++
		if s.flagged == 1 {
			logger.Warn("block %d, channel %d: %s", block, ch, strings.Join(issues, "; "))
		}
	}
}

func logStats(logger *debug.Logger, s *streamIO, device string) {
	if len(s.before) == 0 {
		return
	}
	var before, after float64
	var peak float32
	for ch := range s.before {
		before += s.before[ch].RMS()
		after += s.after[ch].RMS()
		peak = max(peak, s.after[ch].Peak())
	}
	n := float64(len(s.before))
	logger.Info("%s (%s): mean channel RMS %.2f before, %.2f after referencing, peak %.0f over %d samples",
		s.info.Name, device, before/n, after/n, peak, s.after[0].Count())
	if s.flagged > 0 {
		logger.Warn("%s: %d referenced channel blocks saturated or invalid", s.info.Name, s.flagged)
	}
}
