package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/weather"
)

const probeTimeout = 30 * time.Second

// Probe periodically checks that the weather and soil upstreams answer for
// the configured default location, so /health can report upstream readiness
// without issuing live calls on every request.
type Probe struct {
	scheduler *gocron.Scheduler
	weather   weather.Provider
	soil      soil.Estimator
	location  weather.Location
	interval  time.Duration

	mu     sync.RWMutex
	status map[string]string
}

// New creates a Probe. An interval of 0 disables it.
func New(weatherProvider weather.Provider, soilEstimator soil.Estimator, loc weather.Location, interval time.Duration) *Probe {
	return &Probe{
		scheduler: gocron.NewScheduler(time.UTC),
		weather:   weatherProvider,
		soil:      soilEstimator,
		location:  loc,
		interval:  interval,
		status:    make(map[string]string),
	}
}

// Start schedules the periodic probe and runs it once immediately.
func (p *Probe) Start() error {
	if p.interval <= 0 {
		log.Info().Msg("probe: disabled; no interval configured")
		return nil
	}

	_, err := p.scheduler.Every(p.interval).Do(p.run)
	if err != nil {
		return err
	}

	p.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (p *Probe) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// Status returns the latest per-upstream result ("ok" or the error text).
// Empty until the first probe completes.
func (p *Probe) Status() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]string, len(p.status))
	for k, v := range p.status {
		out[k] = v
	}
	return out
}

func (p *Probe) run() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := p.weather.Fetch(ctx, p.location)
		p.record(p.weather.Name(), err)
	}()
	go func() {
		defer wg.Done()
		_, err := p.soil.Estimate(ctx, p.location)
		p.record(p.soil.Name(), err)
	}()
	wg.Wait()
}

func (p *Probe) record(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("upstream", name).Msg("probe: upstream check failed")
		p.status[name] = err.Error()
		return
	}
	p.status[name] = "ok"
}
