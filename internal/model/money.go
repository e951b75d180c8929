// Package model defines the domain entities shared by the reconciliation
// jobs: wallets, reservations, loans, swap requests, reminders, XnScore
// records and their audit trails.
//
// All monetary amounts are integer minor-currency units (Cents). Floating
// point appears only transiently inside interest computation, and is rounded
// to the nearest cent before any amount is applied.
package model

import (
	"fmt"
	"math"
)

// Cents is a monetary amount in minor currency units.
type Cents int64

// CentsFromUnits converts a major-unit amount to Cents, rounding to the
// nearest cent. Sub-cent remainders are dropped, never carried forward.
func CentsFromUnits(units float64) Cents {
	return Cents(math.Round(units * 100))
}

// Units returns the amount in major currency units.
func (c Cents) Units() float64 {
	return float64(c) / 100
}

// String formats the amount as major units with two decimals, e.g. "1250.66".
func (c Cents) String() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// DailyInterest computes one day of simple, non-compounding interest on a
// principal at the given annual percentage rate, rounded to the nearest
// cent. A zero result means the loan is too small to accrue today.
func DailyInterest(principal Cents, apr float64) Cents {
	return Cents(math.Round(float64(principal) * apr / 100 / 365))
}
