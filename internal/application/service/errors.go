package service

import "errors"

var (
	// ErrNegotiationClosed is returned when a message or decision targets a
	// negotiation that already reached accepted, rejected or expired
	ErrNegotiationClosed = errors.New("negotiation is closed")

	// ErrOutOfTurn is returned when a party counters its own still-pending
	// offer, or tries to accept an offer it sent itself
	ErrOutOfTurn = errors.New("not this party's turn")
)
