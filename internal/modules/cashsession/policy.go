package cashsession

import "github.com/shopspring/decimal"

// Variance tolerance thresholds, in percent of expected cash. Within 2% a
// session is considered balanced enough; between 2% and 5% managers see it
// flagged for review; above 5% approval is required. Both bounds are
// exclusive on the higher band.
var (
	reviewThreshold   = decimal.NewFromInt(2)
	approvalThreshold = decimal.NewFromInt(5)
)

// VarianceBand classifies a closed session's variance for prioritisation.
type VarianceBand string

const (
	BandOK       VarianceBand = "ok"
	BandReview   VarianceBand = "review"
	BandCritical VarianceBand = "critical"
)

// RequiresApproval reports whether a closed session's variance exceeds the
// 5% tolerance and must be escalated to a manager. The threshold only
// drives prioritisation: a manager may still approve or reject any closed
// session, and in-tolerance sessions may stay closed indefinitely.
func RequiresApproval(s *CashSession) bool {
	if s.VariancePercentage == nil {
		return false
	}
	return s.VariancePercentage.Abs().GreaterThan(approvalThreshold)
}

// BandFor returns the variance band a session falls into. Open sessions
// have no variance yet and report BandOK.
func BandFor(s *CashSession) VarianceBand {
	if s.VariancePercentage == nil {
		return BandOK
	}
	abs := s.VariancePercentage.Abs()
	switch {
	case abs.GreaterThan(approvalThreshold):
		return BandCritical
	case abs.GreaterThan(reviewThreshold):
		return BandReview
	default:
		return BandOK
	}
}
