package model

import "time"

// ReservationStatus constants. Released and consumed are terminal.
type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "reserved"
	ReservationReleased ReservationStatus = "released"
	ReservationConsumed ReservationStatus = "consumed"
)

// ReleaseWindow is how long past its due date a reservation must be before
// the release job returns the funds to the wallet's main balance.
const ReleaseWindow = 7 * 24 * time.Hour

// Reservation earmarks wallet funds against a future circle contribution.
// Created by the contribution flow; the release job owns the
// reserved -> released transition once the due date is past the window.
type Reservation struct {
	ID       string            `json:"id"`
	WalletID string            `json:"wallet_id"`
	UserID   string            `json:"user_id"`
	CircleID string            `json:"circle_id"`
	Amount   Cents             `json:"amount"`
	DueDate  time.Time         `json:"due_date"`
	Status   ReservationStatus `json:"status"`
}
