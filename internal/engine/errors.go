package engine

import (
	"errors"
	"fmt"
)

// RejectReason identifies why a bid attempt was refused. Rejections are
// validation outcomes reported to the caller; the engine never retries them.
type RejectReason string

const (
	ReasonAuctionNotActive RejectReason = "AuctionNotActive"
	ReasonAuctionExpired   RejectReason = "AuctionExpired"
	ReasonBidTooLow        RejectReason = "BidTooLow"
	ReasonSelfBid          RejectReason = "SelfBid"
	ReasonInvalidAmount    RejectReason = "InvalidAmount"
)

// Rejection is returned when a bid fails validation. It satisfies error so
// it can flow through the usual return path while handlers switch on Reason.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("bid rejected: %s (%s)", r.Reason, r.Detail)
}

// Reject builds a Rejection with a formatted detail message.
func Reject(reason RejectReason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrNotOwner is returned when a dealer command is issued by someone other
// than the auction's dealer. Handlers should translate this into an HTTP
// 403 response.
var ErrNotOwner = errors.New("not the auction owner")

// ErrNotWinner is returned when collection is confirmed by someone other
// than the winning bidder.
var ErrNotWinner = errors.New("not the winning bidder")

// ErrWrongState is returned when a lifecycle command arrives while the
// auction is not in the state the command requires, for example accepting a
// bid on an auction that is still ACTIVE. The caller may re-fetch the
// auction and retry with fresh state. Handlers should translate this into
// an HTTP 409 response.
var ErrWrongState = errors.New("auction is not in the required state")

// ErrItemUnavailable is returned when an auction is created for an item
// that is not currently LISTED.
var ErrItemUnavailable = errors.New("item is not available for auction")

// ErrBadWindow is returned when an auction is created with a bidding window
// that is empty or already over.
var ErrBadWindow = errors.New("auction end time must be after start time and in the future")
