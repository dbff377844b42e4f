package editor

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
)

// Frame is a published render result.
type Frame struct {
	Seq      uint64 // Run sequence number, increasing per scheduled run.
	Revision uint64 // Session revision the frame was rendered from.
	Buffer   *digicam.Buffer
}

// Scheduler renders a session in the background whenever it changes.
// Changes arriving while a run is in progress coalesce into a single
// follow-up run over the latest state. Results are published in sequence
// order; a result older than the published frame is discarded.
type Scheduler struct {
	session *Session
	kick    chan struct{}
	onFrame func(Frame)
	onError func(error)

	mu     sync.Mutex
	seq    uint64
	latest Frame
}

// NewScheduler attaches a scheduler to s. onFrame, when not nil, is called
// from the worker goroutine for every published frame. onError likewise
// receives every failure as a [*digicam.RenderError].
func NewScheduler(s *Session, onFrame func(Frame), onError func(error)) *Scheduler {
	sc := &Scheduler{
		session: s,
		kick:    make(chan struct{}, 1),
		onFrame: onFrame,
		onError: onError,
	}
	s.setNotify(sc.Kick)
	return sc
}

// Kick schedules a run. It never blocks.
func (sc *Scheduler) Kick() {
	select {
	case sc.kick <- struct{}{}:
	default:
	}
}

// Run processes scheduled renders until ctx is done. It returns ctx.Err().
func (sc *Scheduler) Run(ctx context.Context) error {
	defer sc.session.setNotify(nil)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sc.kick:
		}
		sc.runOnce(ctx)
	}
}

func (sc *Scheduler) nextSeq() uint64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.seq++
	return sc.seq
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	seq := sc.nextSeq()
	snap := sc.session.snapshot()
	if snap.source == nil {
		return
	}
	buf, err := sc.session.render(ctx, snap)
	if ctx.Err() != nil {
		return
	}
	sc.session.publish(snap.revision, buf, err)
	if err != nil {
		rerr := &digicam.RenderError{Seq: seq, Err: err}
		logrus.WithFields(logrus.Fields{
			"function": "Scheduler.runOnce",
			"seq":      seq,
			"revision": snap.revision,
			"error":    err.Error(),
		}).Warn("Scheduled render failed")
		if sc.onError != nil {
			sc.onError(rerr)
		}
		return
	}
	f := Frame{Seq: seq, Revision: snap.revision, Buffer: buf}
	if sc.publish(f) && sc.onFrame != nil {
		sc.onFrame(f)
	}
}

// publish stores f as the latest frame unless a newer one is already stored.
func (sc *Scheduler) publish(f Frame) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if f.Seq <= sc.latest.Seq || f.Revision < sc.latest.Revision {
		logrus.WithFields(logrus.Fields{
			"function":  "Scheduler.publish",
			"seq":       f.Seq,
			"published": sc.latest.Seq,
		}).Debug("Discarding stale frame")
		return false
	}
	sc.latest = f
	return true
}

// Latest returns the most recently published frame. Its Buffer is nil
// until the first successful run.
func (sc *Scheduler) Latest() Frame {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.latest
}
