package payments

import (
	"time"

	"github.com/google/uuid"
)

// Direction distinguishes money received from money paid out.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Payment is a settled money movement. Applied payments carry the document
// they settle; standalone payments (deposits, owner drawings) carry none.
// CounterpartyID is the customer for incoming money and the vendor for
// outgoing money; Reference holds the bank statement line or receipt number
// the payment reconciles against.
type Payment struct {
	ID             uuid.UUID  `json:"id"`
	Direction      Direction  `json:"direction"`
	DocumentID     *uuid.UUID `json:"document_id,omitempty"`
	CounterpartyID *int64     `json:"counterparty_id,omitempty"`
	Amount         int64      `json:"amount"`
	PaidAt         time.Time  `json:"paid_at"`
	Method         string     `json:"method,omitempty"`
	Reference      string     `json:"reference,omitempty"`
	Memo           string     `json:"memo,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
