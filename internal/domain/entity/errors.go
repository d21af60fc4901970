package entity

import "errors"

var (
	// ErrNotFound is returned when a voucher or doctor does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidType is returned for a voucher type outside the closed set
	ErrInvalidType = errors.New("invalid voucher type")

	// ErrInvalidAmount is returned when an amount is not a positive decimal
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrDoctorRequired is returned when a doctor payment has no doctor
	ErrDoctorRequired = errors.New("doctor is required for doctor payment vouchers")

	// ErrInvalidPeriod is returned when a payment period ends before it starts
	ErrInvalidPeriod = errors.New("payment period end must not be before its start")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownDoctor is returned when a doctor id is not in the doctor lookup
	ErrUnknownDoctor = errors.New("unknown doctor")
)
