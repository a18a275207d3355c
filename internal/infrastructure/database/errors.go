package database

import (
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ErrorClassPermanent
	}

	switch pqErr.Code {
	case "40001":
		return ErrorClassSerialization
	case "40P01":
		return ErrorClassDeadlock
	case "55P03":
		return ErrorClassTransient
	}
	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
