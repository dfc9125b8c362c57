package app

import "assessment-engine/internal/domain"

// Evaluate decides whether a participant may enter an assessment. It is a
// pure function and runs both at listing time (to flag locked entries) and
// again at start/submit time, so a tier that lapsed between the two cannot
// slip through on stale client state.
//
// Cohort membership is checked first, then the paid gate.
func Evaluate(a domain.Assessment, p domain.Participant) error {
	if !a.HasCohort(p.Cohort) {
		return &domain.AdmissionDeniedError{Reason: domain.DenyCohortMismatch}
	}
	if a.IsPaid && !p.Paid {
		return &domain.AdmissionDeniedError{Reason: domain.DenyPaidTierRequired}
	}
	return nil
}
