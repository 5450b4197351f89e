package debug

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects per-section block timings. Sections are registered up
// front so that recording on the processing path never allocates.
type Profiler struct {
	mu         sync.RWMutex
	sections   []*Measurement
	byName     map[string]*Measurement
	enabled    atomic.Bool
	maxSamples int
	host       string
}

// Measurement holds timing statistics for one profiled section, typically
// one stream.
type Measurement struct {
	name       string
	sampleRate float64
	enabled    *atomic.Bool

	mu          sync.Mutex
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	signal      int64 // processed samples per channel
	samples     []time.Duration
	sampleIndex int
}

// Stats is a consistent snapshot of a Measurement.
type Stats struct {
	Name    string
	Count   uint64
	Samples int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Last    time.Duration
	Average time.Duration
	P99     time.Duration

	// Load is processing time over signal time; above 1 the section cannot
	// keep up in real time.
	Load float64
}

// NewProfiler creates a new profiler keeping maxSamples recent timings per
// section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		byName:     make(map[string]*Measurement),
		maxSamples: maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetHost sets a description of the machine, printed at the top of reports.
func (p *Profiler) SetHost(desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.host = desc
}

// Host returns the machine description.
func (p *Profiler) Host() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.host
}

// SetEnabled enables or disables recording.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Section returns the measurement registered under name, creating it on
// first use. sampleRate converts recorded block lengths to signal time; pass
// 0 when load is meaningless.
func (p *Profiler) Section(name string, sampleRate float64) *Measurement {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.byName[name]; ok {
		if sampleRate > 0 {
			m.mu.Lock()
			m.sampleRate = sampleRate
			m.mu.Unlock()
		}
		return m
	}
	m := &Measurement{
		name:       name,
		sampleRate: sampleRate,
		enabled:    &p.enabled,
		samples:    make([]time.Duration, p.maxSamples),
	}
	p.sections = append(p.sections, m)
	p.byName[name] = m
	return m
}

// Lookup returns the snapshot of a section.
func (p *Profiler) Lookup(name string) (Stats, bool) {
	p.mu.RLock()
	m, ok := p.byName[name]
	p.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	return m.Snapshot(), true
}

// Snapshots returns the stats of every section in registration order.
func (p *Profiler) Snapshots() []Stats {
	p.mu.RLock()
	sections := slices.Clone(p.sections)
	p.mu.RUnlock()

	out := make([]Stats, 0, len(sections))
	for _, m := range sections {
		out = append(out, m.Snapshot())
	}
	return out
}

// Reset clears all measurements, keeping the registered sections.
func (p *Profiler) Reset() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, m := range p.sections {
		m.reset()
	}
}

// Report generates a performance report.
func (p *Profiler) Report() string {
	stats := p.Snapshots()
	if len(stats) == 0 {
		return "No measurements recorded"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n")
	if host := p.Host(); host != "" {
		fmt.Fprintf(&sb, "Host: %s\n", host)
	}
	sb.WriteByte('\n')
	for _, s := range stats {
		fmt.Fprintf(&sb, "%s:\n", s.Name)
		fmt.Fprintf(&sb, "  Blocks:  %d\n", s.Count)
		fmt.Fprintf(&sb, "  Samples: %d\n", s.Samples)
		fmt.Fprintf(&sb, "  Total:   %v\n", s.Total)
		fmt.Fprintf(&sb, "  Average: %v\n", s.Average)
		fmt.Fprintf(&sb, "  Min:     %v\n", s.Min)
		fmt.Fprintf(&sb, "  Max:     %v\n", s.Max)
		fmt.Fprintf(&sb, "  P99:     %v\n", s.P99)
		if s.Load > 0 {
			fmt.Fprintf(&sb, "  Load:    %.2f%% of real time\n", s.Load*100)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Name returns the section name.
func (m *Measurement) Name() string {
	return m.name
}

// Record stores the timing of one block of numSamples samples per channel.
func (m *Measurement) Record(elapsed time.Duration, numSamples int) {
	if m == nil || !m.enabled.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 || elapsed < m.minTime {
		m.minTime = elapsed
	}
	if elapsed > m.maxTime {
		m.maxTime = elapsed
	}
	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.signal += int64(numSamples)

	m.samples[m.sampleIndex] = elapsed
	m.sampleIndex = (m.sampleIndex + 1) % len(m.samples)
}

// Snapshot returns the current statistics.
func (m *Measurement) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Name:    m.name,
		Count:   m.count,
		Samples: m.signal,
		Total:   m.totalTime,
		Min:     m.minTime,
		Max:     m.maxTime,
		Last:    m.lastTime,
	}
	if m.count == 0 {
		return s
	}
	s.Average = m.totalTime / time.Duration(m.count)

	n := min(int(m.count), len(m.samples))
	recent := slices.Clone(m.samples[:n])
	slices.Sort(recent)
	// nearest rank: the smallest sample with at least 99% at or below it
	s.P99 = recent[(n*99+99)/100-1]

	if m.sampleRate > 0 && m.signal > 0 {
		signalTime := float64(m.signal) / m.sampleRate
		s.Load = m.totalTime.Seconds() / signalTime
	}
	return s
}

func (m *Measurement) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = 0
	m.totalTime, m.minTime, m.maxTime, m.lastTime = 0, 0, 0, 0
	m.signal = 0
	m.sampleIndex = 0
	clear(m.samples)
}
