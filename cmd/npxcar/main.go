// Command npxcar applies common-average referencing to Neuropixels
// recordings offline, block by block, the way an acquisition host would.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justyntemme/neuropixelscar/pkg/config"
	"github.com/justyntemme/neuropixelscar/pkg/framework/debug"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

const (
	appName    = "npxcar"
	appVersion = "v0.1.0"

	defaultBlockSize = 3000
)

// options holds command-line overrides of the configuration. input, output
// and probe are comma-separated lists applied to the streams in order.
type options struct {
	configPath string
	input      string
	output     string
	channels   int
	adcs       int
	probe      string
	blockSize  int
	strategy   string
	logLevel   string
	logFile    string
	highpass   float64
	notch      float64
	stats      bool
	profile    bool
	params     []string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.input, "in", "", "input recordings, one per stream, comma-separated")
	flag.StringVar(&opts.output, "out", "", "output recordings, one per stream, comma-separated")
	flag.IntVar(&opts.channels, "channels", 0, "channels per frame of the first stream, including sync")
	flag.IntVar(&opts.adcs, "adcs", 0, "ADC count of the first stream (24 or 32)")
	flag.StringVar(&opts.probe, "probe", "", "probe types, one per stream (np1, np2), comma-separated")
	flag.IntVar(&opts.blockSize, "block", defaultBlockSize, "samples per processing block")
	flag.StringVar(&opts.strategy, "strategy", "", "accumulation strategy (block, sample)")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFile, "log-file", "", "append log output to this file instead of stderr")
	flag.Float64Var(&opts.highpass, "highpass", 0, "high-pass cutoff in Hz applied before referencing, 0 = off")
	flag.Float64Var(&opts.notch, "notch", 0, "line-noise notch in Hz applied before referencing, 0 = off")
	flag.BoolVar(&opts.stats, "stats", false, "report per-stream RMS and saturated blocks")
	flag.BoolVar(&opts.profile, "profile", false, "report per-stream block timing")
	flag.Func("set", "set a processor parameter, e.g. Bypass=Bypassed (repeatable)", func(s string) error {
		if !strings.Contains(s, "=") {
			return fmt.Errorf("expected name=value, got %q", s)
		}
		opts.params = append(opts.params, s)
		return nil
	})
	helpFlag := flag.Bool("help", false, "show help")
	versionFlag := flag.Bool("version", false, "show version")

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}
	if *versionFlag {
		fmt.Printf("%s %s\n", appName, appVersion)
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(2)
	}

	logger, closer, err := newLogger(opts.logFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(2)
	}

	err = run(cfg, runOptions{blockSize: opts.blockSize, stats: opts.stats, params: opts.params}, logger)
	if err != nil {
		logger.Error("%v", err)
	}
	if cerr := closer.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "%s: close log: %v\n", appName, cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// newLogger returns the default stderr logger, or a file logger when path is
// set. The closer must be closed after the last log line.
func newLogger(path, level string) (*debug.Logger, io.Closer, error) {
	if path == "" {
		logger := debug.Default()
		logger.SetLevelFromString(level)
		return logger, io.NopCloser(nil), nil
	}

	logger, closer, err := debug.NewFileLogger(path, appName, debug.DefaultFlags)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevelFromString(level)
	return logger, closer, nil
}

// loadConfig reads the configuration file, if any, and applies the
// command-line overrides. Without a file, more than one probe type selects
// one stream per probe.
func loadConfig(opts options) (*config.Config, error) {
	probes := splitList(opts.probe)

	cfg := config.Default()
	switch {
	case opts.configPath != "":
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	case len(probes) > 1:
		types := make([]stream.ProbeType, len(probes))
		for i, name := range probes {
			probe, err := stream.ParseProbeType(name)
			if err != nil {
				return nil, err
			}
			types[i] = probe
		}
		cfg = config.FromTopology(stream.NewMultiProbe(types...))
	}

	if opts.strategy != "" {
		cfg.Strategy = strings.TrimSpace(opts.strategy)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.TrimSpace(opts.logLevel)
	}
	if opts.profile {
		cfg.Profile = true
	}
	if opts.blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", opts.blockSize)
	}

	lists := []struct {
		flag   string
		values []string
		apply  func(s *config.StreamConfig, v string)
	}{
		{"in", splitList(opts.input), func(s *config.StreamConfig, v string) { s.Input = v }},
		{"out", splitList(opts.output), func(s *config.StreamConfig, v string) { s.Output = v }},
		{"probe", probes, func(s *config.StreamConfig, v string) { s.Probe = v }},
	}
	for _, l := range lists {
		if len(l.values) > len(cfg.Streams) {
			return nil, fmt.Errorf("-%s lists %d values for %d streams", l.flag, len(l.values), len(cfg.Streams))
		}
		for i, v := range l.values {
			l.apply(&cfg.Streams[i], v)
		}
	}

	if len(cfg.Streams) > 0 {
		first := &cfg.Streams[0]
		if opts.channels > 0 {
			first.Channels = opts.channels
		}
		if opts.adcs > 0 {
			first.ADCs = opts.adcs
		}
		if opts.highpass > 0 {
			first.HighpassHz = opts.highpass
		}
		if opts.notch > 0 {
			first.NotchHz = opts.notch
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// splitList splits a comma-separated flag value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func showHelp() {
	fmt.Println(appName, "- common-average referencing for Neuropixels recordings")
	fmt.Println("USAGE: npxcar [options]")
	fmt.Println("OPTIONS:")
	fmt.Println("  -config      YAML configuration with one entry per stream")
	fmt.Println("  -in, -out    Input and output recordings, one per stream, comma-separated")
	fmt.Println("  -probe       Probe types (np1, np2), one per stream; several select one stream per probe")
	fmt.Println("  -channels    Channels per frame of the first stream (default 385)")
	fmt.Println("  -adcs        ADC count of the first stream (24 or 32)")
	fmt.Println("  -block       Samples per processing block (default 3000)")
	fmt.Println("  -strategy    Accumulation strategy (block, sample)")
	fmt.Println("  -set         Set a processor parameter, e.g. -set Bypass=Bypassed")
	fmt.Println("  -highpass    High-pass cutoff in Hz before referencing")
	fmt.Println("  -notch       Line-noise notch in Hz before referencing")
	fmt.Println("  -stats       Report RMS and saturated blocks")
	fmt.Println("  -profile     Report per-stream block timing")
	fmt.Println("  -log-level   Set log level (debug, info, warn, error)")
	fmt.Println("  -log-file    Append log output to a file")
	fmt.Println("  -version     Show version information")
	fmt.Println("EXAMPLES: npxcar -in run_g0_t0.imec0.ap.bin -out run_g0_t0.imec0.ap.car.bin -probe np1")
	fmt.Println("          npxcar -probe np1,np2 -in imec0.ap.bin,imec1.ap.bin -out imec0.car.bin,imec1.car.bin")
}
