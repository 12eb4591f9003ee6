package models

import "time"

// OrderStatus tracks the trade lifecycle:
// PENDING -> SUBMITTED -> {FILLED | PARTIAL | REJECTED | TIMEOUT -> retry | FAILED}.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderSubmitted OrderStatus = "SUBMITTED"
	OrderFilled    OrderStatus = "FILLED"
	OrderPartial   OrderStatus = "PARTIAL"
	OrderRejected  OrderStatus = "REJECTED"
	OrderTimeout   OrderStatus = "TIMEOUT"
	OrderFailed    OrderStatus = "FAILED"
)

// Terminal reports whether the status ends the decision lifecycle.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderFilled, OrderPartial, OrderRejected, OrderFailed:
		return true
	default:
		return false
	}
}

// TradeDecision is the computed order request derived from a valid signal.
type TradeDecision struct {
	SignalID    string
	Symbol      string
	Direction   Direction
	Volume      float64
	Entry       float64
	StopLoss    float64
	TakeProfits []float64 // ladder, nearest first
	RiskAmount  float64
}

// OrderRequest is what the broker gateway accepts.
type OrderRequest struct {
	Symbol     string
	Direction  Direction
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

// OrderResult is the broker's answer to a single submission attempt.
type OrderResult struct {
	OrderID         string
	Status          OrderStatus
	FillPrice       float64
	FilledVolume    float64
	RejectionReason string
}

// ExecutionResult is the terminal outcome of executing one signal.
type ExecutionResult struct {
	SignalID  string
	Status    OrderStatus
	Reason    string
	OrderID   string
	FillPrice float64
	Volume    float64
	Attempts  int
	Decision  *TradeDecision
	Timestamp time.Time
}
