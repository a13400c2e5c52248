package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest describes a non-cash charge to authorize.
type ChargeRequest struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  string
}

// ChargeResult is the gateway's answer. Approved=false with a nil error is a
// business rejection (declined card), not a system failure.
type ChargeResult struct {
	Approved  bool
	Reference string
	Message   string
}

// Charger authorizes non-cash payments. Swappable per deployment.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// LocalCharger approves every charge and mints a local reference number.
// Stands in for a real acquirer integration.
type LocalCharger struct{}

func NewLocalCharger() *LocalCharger {
	return &LocalCharger{}
}

func (c *LocalCharger) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Amount.IsNegative() {
		return ChargeResult{Approved: false, Message: "negative amount"}, nil
	}
	ref := fmt.Sprintf("%s-%d-%s", req.Method, time.Now().Unix(), req.OrderID.String()[:8])
	return ChargeResult{Approved: true, Reference: ref}, nil
}
