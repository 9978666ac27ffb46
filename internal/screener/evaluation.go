package screener

import "github.com/mohamedkhairy/krw-coin-scanner/internal/models"

// Outcome is the result kind of a per-ticker evaluation
type Outcome int

const (
	// Unavailable means the data needed to decide could not be obtained
	Unavailable Outcome = iota
	// Rejected means the ticker was evaluated and failed a check
	Rejected
	// Qualifies means the ticker passed every check
	Qualifies
)

func (o Outcome) String() string {
	switch o {
	case Qualifies:
		return "qualifies"
	case Rejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

// Reasons attached to non-qualifying evaluations
const (
	ReasonPassed             = "passed"
	ReasonNoMACDSignal       = "macd_no_signal"
	ReasonMANotRising        = "ma_not_rising"
	ReasonMAUndefined        = "ma_undefined"
	ReasonInsufficientDaily  = "insufficient_daily_history"
	ReasonInsufficientHourly = "insufficient_hourly_history"
	ReasonFetchFailed        = "fetch_failed"
	ReasonBadCandles         = "bad_candles"
	ReasonIndicatorFault     = "indicator_fault"
	ReasonPanic              = "panic"
)

// Evaluation is the typed outcome of the indicator stage for one ticker.
// Candidate is set only when Outcome is Qualifies.
type Evaluation struct {
	Market    string
	Outcome   Outcome
	Reason    string
	Err       error
	Candidate *models.Candidate
}

// Qualified reports whether the evaluation produced a candidate
func (e Evaluation) Qualified() bool {
	return e.Outcome == Qualifies && e.Candidate != nil
}

func qualifies(c *models.Candidate) Evaluation {
	return Evaluation{Market: c.Market, Outcome: Qualifies, Reason: ReasonPassed, Candidate: c}
}

func rejected(market, reason string) Evaluation {
	return Evaluation{Market: market, Outcome: Rejected, Reason: reason}
}

func unavailable(market, reason string, err error) Evaluation {
	return Evaluation{Market: market, Outcome: Unavailable, Reason: reason, Err: err}
}

// Unavailability builds an Unavailable evaluation, for callers that catch
// faults outside the evaluator
func Unavailability(market, reason string, err error) Evaluation {
	return unavailable(market, reason, err)
}
