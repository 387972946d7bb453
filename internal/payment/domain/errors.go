package domain

import "errors"

// Failure modes for PaymentPoster (spec §4.7, §7).
var (
	ErrMemberNotFound       = errors.New("member_not_found")
	ErrOutOfScope           = errors.New("out_of_scope")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrClientUpToDate       = errors.New("client_up_to_date")
	ErrArrearsCutoff        = errors.New("arrears_cutoff")
	ErrRaceConditionOverpay = errors.New("race_condition_overpay")
)
