package download

import (
	"fmt"
	"log/slog"
	"time"
)

// Progress logs transfer progress at most once per second, plus once
// when a known total is reached. It is not safe for concurrent use.
type Progress struct {
	logger    *slog.Logger
	attrs     []any
	startTime time.Time
	lastLog   time.Time
	complete  bool
}

// NewProgress returns a Progress logging through logger at debug level.
// attrs are added to every record.
func NewProgress(logger *slog.Logger, attrs ...any) *Progress {
	if logger == nil {
		logger = slog.Default()
	}

	return &Progress{
		logger:    logger,
		attrs:     attrs,
		startTime: time.Now(),
	}
}

// Update records the cumulative transferred byte count against total.
// A total of zero or less means unknown.
func (p *Progress) Update(transferred, total int64) {
	if total > 0 && transferred >= total {
		if !p.complete {
			p.complete = true
			p.log("transfer complete", transferred, total)
		}
		return
	}

	if time.Since(p.lastLog) >= time.Second {
		p.lastLog = time.Now()
		p.log("transferring", transferred, total)
	}
}

func (p *Progress) log(msg string, transferred, total int64) {
	elapsed := time.Since(p.startTime)

	attrs := append([]any{}, p.attrs...)
	if total > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(transferred)/float64(total)*100))
	}
	attrs = append(attrs,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", transferred,
		"total", total,
	)
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "mbps", fmt.Sprintf("%.2f", float64(transferred)/secs/(1024*1024)))
	}

	p.logger.Debug(msg, attrs...)
}
