package relay

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hamid0740/File2Link-Bot/pkg/bytesize"
)

// BarWidth is the number of segments in a rendered progress bar.
const BarWidth = 20

// Throttle rate-limits progress notifications so a transfer doesn't flood
// the transport with message edits.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle emitting at most one notification per
// interval. The first call is always allowed.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// ShouldNotify reports whether a progress update may be sent now.
// The final chunk always notifies, so every transfer ends at 100%.
func (t *Throttle) ShouldNotify(isFinalChunk bool) bool {
	return t.shouldNotifyAt(time.Now(), isFinalChunk)
}

func (t *Throttle) shouldNotifyAt(now time.Time, isFinalChunk bool) bool {
	if isFinalChunk {
		return true
	}
	return t.limiter.AllowN(now, 1)
}

// Percent returns done/total as a percentage rounded to one decimal.
// A zero total reports 100 so byte-less transfers still complete the bar.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 100.0
	}
	return math.Round(float64(done)*1000/float64(total)) / 10
}

// FormatProgress renders the human-readable byte counts and percentage,
// e.g. "1.5MiB / 3.0MiB (50.0%)".
func FormatProgress(done, total int64) string {
	return fmt.Sprintf("%s / %s (%.1f%%)", bytesize.Format(done), bytesize.Format(total), Percent(done, total))
}

// RenderBar renders a fixed-width textual bar proportional to done/total,
// using the given full and empty segment glyphs.
func RenderBar(done, total int64, fullSegment, emptySegment string) string {
	full := int(math.Round(Percent(done, total) / (100.0 / BarWidth)))
	if full > BarWidth {
		full = BarWidth
	}
	if full < 0 {
		full = 0
	}
	return strings.Repeat(fullSegment, full) + strings.Repeat(emptySegment, BarWidth-full)
}
