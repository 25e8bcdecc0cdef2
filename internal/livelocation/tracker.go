// Package livelocation periodically reports a transporter's position to the
// marketplace backend.
package livelocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/backend"
)

// ErrRunning is returned by Start on a tracker that is already running
var ErrRunning = errors.New("live location tracker already running")

// Locator supplies the current position
type Locator interface {
	Locate(ctx context.Context) (backend.Location, error)
}

// Reporter sends a position to the backend. *backend.Actor implements it.
type Reporter interface {
	UpdateLiveLocation(ctx context.Context, loc backend.Location) error
}

// Tracker reports the locator's position on a fixed interval
type Tracker struct {
	locator  Locator
	reporter Reporter
	logger   zerolog.Logger
	timeout  time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	first  sync.WaitGroup
}

// NewTracker creates a stopped tracker
func NewTracker(locator Locator, reporter Reporter, logger zerolog.Logger) *Tracker {
	return &Tracker{
		locator:  locator,
		reporter: reporter,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

// ReportOnce reads the current position and sends it
func (t *Tracker) ReportOnce(ctx context.Context) error {
	loc, err := t.locator.Locate(ctx)
	if err != nil {
		return fmt.Errorf("failed to locate: %w", err)
	}
	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = time.Now().UTC()
	}

	if err := t.reporter.UpdateLiveLocation(ctx, loc); err != nil {
		return fmt.Errorf("failed to report live location: %w", err)
	}

	t.logger.Debug().
		Str("transporter_id", loc.TransporterID).
		Float64("latitude", loc.Latitude).
		Float64("longitude", loc.Longitude).
		Msg("Live location reported")
	return nil
}

// Start reports immediately and then every interval until Stop. Intervals
// are rounded down to whole seconds, with a minimum of one second.
func (t *Tracker) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid live location interval %s", interval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cron != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	tick := func() {
		reportCtx, done := context.WithTimeout(ctx, t.timeout)
		defer done()
		if err := t.ReportOnce(reportCtx); err != nil && ctx.Err() == nil {
			t.logger.Warn().Err(err).Msg("Live location update failed")
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), tick); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule live location updates: %w", err)
	}
	c.Start()

	t.first.Add(1)
	go func() {
		defer t.first.Done()
		tick()
	}()

	t.cron = c
	t.cancel = cancel
	t.logger.Info().Dur("interval", interval).Msg("Live location tracking started")
	return nil
}

// Running reports whether the tracker is scheduled
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cron != nil
}

// Stop cancels the schedule and any report in flight, and waits for running
// jobs to return. Stopping a stopped tracker does nothing.
func (t *Tracker) Stop() {
	t.mu.Lock()
	c, cancel := t.cron, t.cancel
	t.cron, t.cancel = nil, nil
	t.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	t.first.Wait()
	t.logger.Info().Msg("Live location tracking stopped")
}

// FileLocator reads the position from a JSON file kept current by a GPS
// daemon on the device
type FileLocator struct {
	Path          string
	TransporterID string
}

type fix struct {
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (f *FileLocator) Locate(ctx context.Context) (backend.Location, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return backend.Location{}, err
	}

	var fx fix
	if err := json.Unmarshal(data, &fx); err != nil {
		return backend.Location{}, fmt.Errorf("invalid location file %s: %w", f.Path, err)
	}
	if fx.Latitude == nil || fx.Longitude == nil {
		return backend.Location{}, fmt.Errorf("location file %s has no fix", f.Path)
	}

	return backend.Location{
		TransporterID: f.TransporterID,
		Latitude:      *fx.Latitude,
		Longitude:     *fx.Longitude,
		RecordedAt:    fx.RecordedAt,
	}, nil
}
