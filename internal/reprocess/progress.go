package reprocess

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProgressTimer reports pages/sec and ETA through zap, a direct port of
// original_source/wikimunge/page_proc_timer.py's PageProcTimer: there it
// printed to stdout at most once per second of wall time, here it logs
// through the same structured logger as everything else in the module.
type ProgressTimer struct {
	total int // 0 means unknown, matching the Python's total=None

	log   *zap.Logger
	start time.Time
	last  time.Time
	count int

	now func() time.Time
}

// NewProgressTimer starts a timer for a run of total pages (0 if unknown).
func NewProgressTimer(total int, log *zap.Logger) *ProgressTimer {
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now()
	return &ProgressTimer{total: total, log: log, start: now, last: now, now: time.Now}
}

// Inc records one more page processed, logging a progress line at most
// once per second of wall-clock time since the last log (mirroring the
// Python's "if 1 < now - self.last").
func (t *ProgressTimer) Inc() {
	t.count++
	now := t.now()
	if now.Sub(t.last) <= time.Second {
		return
	}

	delta := now.Sub(t.start).Seconds()
	pps := 0.0
	if delta > 0 {
		pps = float64(t.count) / delta
	}

	if t.total > 0 {
		eta := delta / float64(t.count) * float64(t.total-t.count)
		percent := float64(t.count) / float64(t.total) * 100
		t.log.Info("processing pages",
			zap.Int("count", t.count),
			zap.Int("total", t.total),
			zap.String("percent", fmt.Sprintf("%.1f%%", percent)),
			zap.String("rate", fmt.Sprintf("%.0f pages/sec", pps)),
			zap.String("eta", formatETA(eta)),
		)
	} else {
		t.log.Info("processing pages",
			zap.Int("count", t.count),
			zap.String("rate", fmt.Sprintf("%.0f pages/sec", pps)),
		)
	}
	t.last = now
}

func formatETA(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
