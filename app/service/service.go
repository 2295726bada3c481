// Package service wires the capture region, ring and snapshot together. The recorder salvages what the
// previous session left in the region, resets the ring for the current session and only then hands it
// to the console, so nothing written now can mix into the recovered history.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/umputun/kmsglast/app/notify"
	"github.com/umputun/kmsglast/app/region"
	"github.com/umputun/kmsglast/app/ring"
	"github.com/umputun/kmsglast/app/snapshot"
)

//go:generate moq -out mocks/allocator.go -pkg mocks -skip-ensure -fmt goimports . Allocator
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/cron.go -pkg mocks -skip-ensure -fmt goimports . Cron

// SinkName is the console sink name of the capture ring
const SinkName = "ram"

// Allocator provides the capture region
type Allocator interface {
	Allocate(size int) (region.Region, error)
}

// Notifier delivers the salvaged content
type Notifier interface {
	Send(ctx context.Context, r notify.Report) error
}

// Cron interface defines basic robfig/cron methods used by recorder
type Cron interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

// Registrar is a console accepting sinks
type Registrar interface {
	Register(name string, w io.Writer)
	Unregister(name string)
}

// Params configures Recorder
type Params struct {
	Capacity  int // ring data size, ring.DefaultCapacity if 0
	Allocator Allocator
}

// Recorder owns the capture ring for the current session and the snapshot of the previous one.
// A recorder without region is inert: nothing is captured and the snapshot is always empty.
type Recorder struct {
	capacity     int
	region       region.Region
	ring         *ring.Ring
	snap         *snapshot.Snapshot
	prevValid    bool
	salvaged     int
	startedAt    time.Time
	hostBootTime time.Time
	console      Registrar

	mu     sync.RWMutex // guards region access against close
	closed bool
}

// Status describes recorder state
type Status struct {
	Inert            bool       `json:"inert"`
	Region           string     `json:"region,omitempty"`
	RegionReused     bool       `json:"region_reused"`
	Capacity         int        `json:"capacity"`
	RingUsed         int        `json:"ring_used"`
	PrevSessionValid bool       `json:"prev_session_valid"`
	Salvaged         int        `json:"salvaged"`
	SnapshotLen      int        `json:"snapshot_len"`
	StartedAt        time.Time  `json:"started_at"`
	HostBootTime     time.Time  `json:"host_boot_time,omitzero"`
	Stats            ring.Stats `json:"stats"`
}

// RunParams configures background activity of Run
type RunParams struct {
	SyncInterval  time.Duration // region flush period, no periodic flush if 0
	Cron          Cron          // scheduler for the flush, cron.New() if nil
	Notifier      Notifier      // receives the salvaged content once, optional
	NotifyTimeout time.Duration
}

// NewRecorder allocates the region, builds the snapshot from whatever the region holds and resets
// the ring for the current session. Allocation failure is not fatal, the recorder is inert in this case.
func NewRecorder(p Params) *Recorder {
	res := &Recorder{capacity: p.Capacity, startedAt: time.Now(), snap: snapshot.New(0)}
	if res.capacity <= 0 {
		res.capacity = ring.DefaultCapacity
	}
	if bt, err := host.BootTime(); err == nil {
		res.hostBootTime = time.Unix(int64(bt), 0) //nolint:gosec // boot time fits
	} else {
		log.Printf("[DEBUG] can't get host boot time, %v", err)
	}

	reg, err := p.Allocator.Allocate(ring.Size(res.capacity))
	if err != nil {
		log.Printf("[WARN] can't allocate capture region, console history disabled: %v", err)
		return res
	}
	rng, err := ring.New(reg.Bytes())
	if err != nil {
		log.Printf("[WARN] can't use capture region %v, console history disabled: %v", reg, err)
		if e := reg.Close(); e != nil {
			log.Printf("[WARN] can't close region, %v", e)
		}
		return res
	}

	res.region, res.ring = reg, rng
	res.capacity = rng.Capacity()
	res.prevValid = ring.Valid(rng.State(), rng.Capacity())
	res.snap = snapshot.New(res.capacity)
	if res.salvaged, err = res.snap.Build(rng); err != nil {
		log.Printf("[WARN] can't build snapshot, %v", err)
	}
	log.Printf("[INFO] capture region %v, previous session valid: %v, recovered %d bytes", reg, res.prevValid, res.salvaged)
	return res
}

// Attach registers the ring as a console sink. Does nothing for inert recorder.
func (r *Recorder) Attach(c Registrar) {
	if r.ring == nil {
		return
	}
	c.Register(SinkName, r.ring)
	r.console = c
}

// Run blocks until ctx is done, flushing the region periodically. The salvaged content is sent to the
// notifier once, if there is any. On exit the ring is detached from the console and the region closed.
func (r *Recorder) Run(ctx context.Context, p RunParams) error {
	if r.ring == nil {
		<-ctx.Done()
		return nil
	}

	if p.SyncInterval > 0 {
		if p.Cron == nil {
			p.Cron = cron.New()
		}
		spec := fmt.Sprintf("@every %s", p.SyncInterval)
		if _, err := p.Cron.AddFunc(spec, r.sync); err != nil {
			return fmt.Errorf("can't schedule region sync %q: %w", spec, err)
		}
		p.Cron.Start()
		log.Printf("[DEBUG] region sync scheduled, %s", spec)
	}

	if p.Notifier != nil && r.salvaged > 0 {
		r.notify(ctx, p)
	}

	<-ctx.Done()
	if p.Cron != nil && p.SyncInterval > 0 {
		<-p.Cron.Stop().Done()
	}
	return r.close()
}

func (r *Recorder) notify(ctx context.Context, p RunParams) {
	if p.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.NotifyTimeout)
		defer cancel()
	}
	rep := notify.Report{Salvaged: r.snap.Bytes(), StartedAt: r.startedAt, HostBootTime: r.hostBootTime}
	if err := p.Notifier.Send(ctx, rep); err != nil {
		log.Printf("[WARN] failed to notify, %v", err)
		return
	}
	log.Printf("[INFO] recovered console sent, %d bytes", len(rep.Salvaged))
}

func (r *Recorder) sync() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	if err := r.region.Sync(); err != nil {
		log.Printf("[WARN] can't sync capture region, %v", err)
	}
}

// close detaches the ring first, the region must not be written once unmapped.
// After close the ring is not touched anymore, RingLen reports 0.
func (r *Recorder) close() error {
	if r.console != nil {
		r.console.Unregister(SinkName)
	}
	r.sync()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	retained := r.ring.Len()
	r.closed = true
	if err := r.region.Close(); err != nil {
		return fmt.Errorf("can't close capture region: %w", err)
	}
	log.Printf("[DEBUG] capture region closed, %d bytes retained", retained)
	return nil
}

// Snapshot returns the previous session snapshot
func (r *Recorder) Snapshot() *snapshot.Snapshot { return r.snap }

// Inert tells if the recorder runs without capture
func (r *Recorder) Inert() bool { return r.ring == nil }

// Capacity returns ring data size
func (r *Recorder) Capacity() int { return r.capacity }

// SnapshotLen returns current snapshot length
func (r *Recorder) SnapshotLen() int { return r.snap.Len() }

// RingLen returns bytes retained by the ring, 0 for inert or closed recorder
func (r *Recorder) RingLen() int {
	if r.ring == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0
	}
	return r.ring.Len()
}

// RingStats returns ring counters, zero for inert recorder
func (r *Recorder) RingStats() ring.Stats {
	if r.ring == nil {
		return ring.Stats{}
	}
	return r.ring.Stats()
}

// Status returns the current state
func (r *Recorder) Status() Status {
	res := Status{
		Inert:            r.ring == nil,
		Capacity:         r.capacity,
		RingUsed:         r.RingLen(),
		PrevSessionValid: r.prevValid,
		Salvaged:         r.salvaged,
		SnapshotLen:      r.snap.Len(),
		StartedAt:        r.startedAt,
		HostBootTime:     r.hostBootTime,
		Stats:            r.RingStats(),
	}
	if r.region != nil {
		res.Region = fmt.Sprintf("%v", r.region)
		if ru, ok := r.region.(interface{ Reused() bool }); ok {
			res.RegionReused = ru.Reused()
		}
	}
	return res
}
