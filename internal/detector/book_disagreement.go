package detector

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// BookDisagreementDetector flags books hanging materially different spreads
type BookDisagreementDetector struct {
	cfg config.BookDisagreementConfig
}

// NewBookDisagreementDetector creates a new book disagreement detector
func NewBookDisagreementDetector(cfg config.BookDisagreementConfig) *BookDisagreementDetector {
	return &BookDisagreementDetector{cfg: cfg}
}

// Name returns the detector name
func (d *BookDisagreementDetector) Name() string {
	return "book_disagreement"
}

// Detect emits a side-neutral spread confirmation when the widest pair of book
// spreads is at least MinRange apart
func (d *BookDisagreementDetector) Detect(s models.MarketSnapshot) []models.Signal {
	var (
		low, high         float64
		lowBook, highBook string
		count             int
	)

	for _, q := range s.BooksQuotes {
		if q.Spread == nil {
			continue
		}
		v := *q.Spread
		if count == 0 || v < low {
			low, lowBook = v, q.BookName
		}
		if count == 0 || v > high {
			high, highBook = v, q.BookName
		}
		count++
	}

	if count < 2 {
		return nil
	}

	spread := high - low
	if spread < d.cfg.MinRange {
		return nil
	}

	confidence := clip(d.cfg.BaseConfidence+d.cfg.PerPoint*(spread-d.cfg.MinRange), d.cfg.BaseConfidence, d.cfg.MaxConfidence)

	desc := fmt.Sprintf("Books disagree by %.1f pts (%s %+.1f vs %s %+.1f)", spread, lowBook, low, highBook, high)

	return []models.Signal{
		newSignal(models.SignalBookDisagreement, models.MarketSpread, models.SideNone, confidence, round1(spread), desc),
	}
}
