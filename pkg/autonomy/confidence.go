package autonomy

import (
	"math"
	"time"
)

// Confidence thresholds and learning parameters.
const (
	// enableThreshold is the confidence required for auto-execution.
	enableThreshold = 80

	// enableMinApprovals is the approval count required for auto-execution.
	enableMinApprovals = 5

	// eligibleThreshold is the confidence at which the outer loop may offer
	// the user an auto-execute opt-in.
	eligibleThreshold = 60

	// seedApprovalConfidence seeds a preference created by an approval.
	seedApprovalConfidence = 20

	// streakMinApprovals is the clean-streak length that earns the
	// consistency boost.
	streakMinApprovals = 3

	// streakBoost is the consistency boost added for a clean approval
	// streak.
	streakBoost = 15

	// streakBoostCeiling caps what the boost alone can reach; a higher
	// ratio-derived score is kept as is.
	streakBoostCeiling = 90

	// decayPeriod is the idle time after which one stored rejection loses
	// its weight.
	decayPeriod = 30 * 24 * time.Hour

	// fastResetWindow is the time window within which repeated early
	// rejections force confidence to zero.
	fastResetWindow = 7 * 24 * time.Hour

	// fastResetRejections is the rejection count that triggers the fast
	// reset for a user with no approvals on record.
	fastResetRejections = 2
)

// nextConfidence computes the confidence score after one approval/rejection
// outcome. Counts are the post-increment values; lastUpdated is the
// preference's timestamp before this outcome.
//
// The rules compose in a fixed order: rejection decay first (stale
// rejections lose weight, so trust can recover), then the approval ratio,
// then the clean-streak boost, and finally the fast-reset guard, which is
// checked against the raw recent counts and overrides the arithmetic.
//
// Kept as a pure function of (counts, lastUpdated, now, outcome) so the
// boost, decay, and reset rules are testable in isolation from storage.
func nextConfidence(approvals, rejections int, lastUpdated, now time.Time, approved bool) int {
	// One rejection is forgiven per full decay period of idleness.
	effectiveRejections := rejections
	if idle := now.Sub(lastUpdated); idle > decayPeriod {
		effectiveRejections -= int(idle / decayPeriod)
		if effectiveRejections < 0 {
			effectiveRejections = 0
		}
	}

	confidence := 0
	if total := approvals + effectiveRejections; total > 0 {
		confidence = int(math.Round(100 * float64(approvals) / float64(total)))
	}

	// A clean streak is rewarded beyond what the raw ratio shows. The boost
	// never lowers an already higher score.
	if approved && rejections == 0 && approvals >= streakMinApprovals {
		boosted := confidence + streakBoost
		if boosted > streakBoostCeiling {
			boosted = streakBoostCeiling
		}
		if boosted > confidence {
			confidence = boosted
		}
	}

	// Two quick rejections with no track record mean "do not automate
	// this", whatever the arithmetic says.
	if !approved && rejections >= fastResetRejections && approvals == 0 && now.Sub(lastUpdated) < fastResetWindow {
		confidence = 0
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// qualifiesForAutoExecute applies the auto-enable invariant.
func qualifiesForAutoExecute(confidence, approvals int) bool {
	return confidence >= enableThreshold && approvals >= enableMinApprovals
}
