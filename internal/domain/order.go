package domain

import "time"

// OrderStatus tracks the lifecycle of a simulated order.
type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota + 1
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "NEW"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCanceled:
		return "CANCELED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Order is a trading order submitted to a simulated exchange.
// Limit orders carry a Price; market orders leave it zero-valued.
type Order struct {
	ID        string
	Symbol    Symbol
	Side      OrderSide
	Type      OrderType
	Price     Price
	Quantity  Quantity
	Status    OrderStatus
	CreatedAt time.Time
}

// IsOpen checks if the order is still active.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusNew
}

// Fill records one simulated execution against replayed price data.
type Fill struct {
	OrderID    string
	PositionID string
	Symbol     Symbol
	Side       OrderSide
	Price      Price
	Quantity   Quantity
	Timestamp  time.Time
}

// Position is the aggregate exposure tracked under one position ID.
// Quantity is signed: positive long, negative in display terms means the
// position is short (Side carries the direction).
type Position struct {
	ID         string
	Symbol     Symbol
	Side       OrderSide
	Quantity   Quantity
	EntryPrice Price
	OpenedAt   time.Time
}
