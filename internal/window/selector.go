// Package window decides which contiguous slice of the master item sequence
// should be materialized.
package window

import "github.com/glabrego/gallery-cli/internal/media"

// Config holds the growth heuristics. None of these are derived values;
// they are tuning knobs.
type Config struct {
	// ForwardChunk is how many items are added after the window when the
	// viewport reaches its end.
	ForwardChunk int
	// BackwardChunk is the same for the start. Prepending is costlier on
	// some renderers, so it can be set higher to prepend less often.
	BackwardChunk int
	// MaxRestoreSpan bounds how far apart restored nearby items may be
	// before the restore falls back to centring on the first match.
	MaxRestoreSpan int
	RestoreMargin  int
	// MaxAnchorJump is the distance beyond which a forced anchor discards
	// the materialized span instead of growing it.
	MaxAnchorJump  int
	AnchorMargin   int
	PrefetchMargin int
}

func DefaultConfig() Config {
	return Config{
		ForwardChunk:   25,
		BackwardChunk:  25,
		MaxRestoreSpan: 100,
		RestoreMargin:  10,
		MaxAnchorJump:  100,
		AnchorMargin:   10,
		PrefetchMargin: 50,
	}
}

type Input struct {
	Seq          *Sequence
	Materialized []media.Item
	Nearby       []media.Item
	Anchor       *media.Item
	Columns      int
	// RestoreNearby is the nearby snapshot saved in history. It is only
	// passed on the first computation after a data source switch.
	RestoreNearby []media.Item
}

type Result struct {
	Window   Range
	Prefetch Range
	// Restored is set when RestoreNearby matched something.
	Restored bool
}

type Selector struct {
	cfg Config
}

func NewSelector(cfg Config) Selector {
	def := DefaultConfig()
	if cfg.ForwardChunk <= 0 {
		cfg.ForwardChunk = def.ForwardChunk
	}
	if cfg.BackwardChunk <= 0 {
		cfg.BackwardChunk = def.BackwardChunk
	}
	if cfg.MaxRestoreSpan <= 0 {
		cfg.MaxRestoreSpan = def.MaxRestoreSpan
	}
	if cfg.RestoreMargin < 0 {
		cfg.RestoreMargin = def.RestoreMargin
	}
	if cfg.MaxAnchorJump <= 0 {
		cfg.MaxAnchorJump = def.MaxAnchorJump
	}
	if cfg.AnchorMargin < 0 {
		cfg.AnchorMargin = def.AnchorMargin
	}
	if cfg.PrefetchMargin < 0 {
		cfg.PrefetchMargin = def.PrefetchMargin
	}
	return Selector{cfg: cfg}
}

func (s Selector) Config() Config {
	return s.cfg
}

// Compute returns the range to materialize. The result is always a
// contiguous, clamped range of in.Seq, empty only when the sequence is.
func (s Selector) Compute(in Input) Result {
	n := in.Seq.Len()
	if n == 0 {
		return Result{}
	}

	firstMat, lastMat := edges(in.Seq, in.Materialized)
	firstNear, lastNear := edges(in.Seq, in.Nearby)
	anchorIdx := -1
	if in.Anchor != nil {
		anchorIdx = in.Seq.Index(*in.Anchor)
	}

	start, end := -1, -1
	for _, i := range []int{firstMat, lastMat, firstNear, lastNear, anchorIdx} {
		if i < 0 {
			continue
		}
		if start == -1 || i < start {
			start = i
		}
		if i > end {
			end = i
		}
	}
	resolved := start != -1

	var res Result
	if lo, hi, ok := s.restoreRange(in.Seq, in.RestoreNearby); ok {
		res.Restored = true
		if resolved {
			start = min(start, lo)
			end = max(end, hi)
		} else {
			start, end = lo, hi
			resolved = true
		}
	}
	if !resolved {
		start, end = 0, 0
	}

	noNearby := firstNear == -1 && lastNear == -1
	if noNearby || (lastMat != -1 && lastMat == lastNear) {
		end += s.cfg.ForwardChunk
	}
	if noNearby || (firstMat != -1 && firstMat == firstNear) {
		start -= s.cfg.BackwardChunk
	}
	start, end = clamp(start, end, n)

	if anchorIdx != -1 && firstMat != -1 && lastMat != -1 {
		lo, hi := min(firstMat, lastMat), max(firstMat, lastMat)
		if anchorIdx < lo-s.cfg.MaxAnchorJump || anchorIdx > hi+s.cfg.MaxAnchorJump {
			start, end = clamp(anchorIdx-s.cfg.AnchorMargin, anchorIdx+s.cfg.AnchorMargin, n)
		}
	}

	if cols := in.Columns; cols > 1 {
		start -= start % cols
	}

	res.Window = Range{Start: start, End: end + 1}
	res.Prefetch = Range{
		Start: max(0, start-s.cfg.PrefetchMargin),
		End:   min(n, end+1+s.cfg.PrefetchMargin),
	}
	return res
}

// restoreRange finds the span of the saved nearby items in seq. Unrelated
// or shuffled results can scatter matches across the list; such spans are
// replaced by a small range around the first match so restoring never
// forces a huge load.
func (s Selector) restoreRange(seq *Sequence, saved []media.Item) (int, int, bool) {
	lo, hi, first := -1, -1, -1
	for _, it := range saved {
		i := seq.Index(it)
		if i < 0 {
			continue
		}
		if first == -1 {
			first = i
		}
		if lo == -1 || i < lo {
			lo = i
		}
		if i > hi {
			hi = i
		}
	}
	if first == -1 {
		return 0, 0, false
	}
	if hi-lo > s.cfg.MaxRestoreSpan {
		return first - s.cfg.RestoreMargin, first + s.cfg.RestoreMargin, true
	}
	return lo, hi, true
}

func edges(seq *Sequence, items []media.Item) (int, int) {
	if len(items) == 0 {
		return -1, -1
	}
	return seq.Index(items[0]), seq.Index(items[len(items)-1])
}

func clamp(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if start > end {
		start = end
	}
	if start < 0 {
		start = 0
	}
	return start, end
}
