package backup

// ProgressEvent reports how far an archive operation has advanced. Events are
// best-effort; the operation's return value is authoritative.
type ProgressEvent struct {
	Stage          string
	Percent        float64
	ProcessedBytes int64
	TotalBytes     int64
}

// ProgressFunc receives progress events during backup and restore. It is
// called synchronously and must not block.
type ProgressFunc func(ProgressEvent)

type progressTracker struct {
	stage     string
	total     int64
	processed int64
	emit      ProgressFunc
}

func newProgressTracker(stage string, total int64, emit ProgressFunc) *progressTracker {
	return &progressTracker{stage: stage, total: total, emit: emit}
}

func (t *progressTracker) Percent() float64 {
	if t.total <= 0 {
		return 100
	}
	percent := float64(t.processed) / float64(t.total) * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}

func (t *progressTracker) Add(n int64) {
	t.processed += n
	if t.emit == nil {
		return
	}
	t.emit(ProgressEvent{
		Stage:          t.stage,
		Percent:        t.Percent(),
		ProcessedBytes: t.processed,
		TotalBytes:     t.total,
	})
}

func (t *progressTracker) Finish() {
	if t.emit == nil {
		return
	}
	t.emit(ProgressEvent{
		Stage:          t.stage,
		Percent:        100,
		ProcessedBytes: t.processed,
		TotalBytes:     t.total,
	})
}
