// Package warranty evaluates warranty coverage as a pure function of the
// sale date, a model's warranty window, and an as-of date.
package warranty

import (
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

// MonthsElapsed returns the calendar-month difference between saleDate and
// asOf using year*12+month arithmetic.
//
// Day-of-month is deliberately ignored: a unit sold on the last day of a
// month and serviced on the first day of a later month counts whole months
// between them. This matches the established claim-adjudication behavior and
// must not be "fixed" without a coordinated policy change.
func MonthsElapsed(saleDate, asOf time.Time) int {
	return (asOf.Year()-saleDate.Year())*12 + int(asOf.Month()) - int(saleDate.Month())
}

// Evaluate computes parts and service validity at asOf.
//
// The result is frozen into a service visit at creation time; stored
// snapshots are never revised retroactively.
func Evaluate(saleDate time.Time, window domain.WarrantyWindow, asOf time.Time) domain.WarrantySnapshot {
	elapsed := MonthsElapsed(saleDate, asOf)
	return domain.WarrantySnapshot{
		PartsValid:   elapsed <= window.PartsMonths,
		ServiceValid: elapsed <= window.ServiceMonths,
	}
}
