package domain

// PriceType selects which derived price to compute from cached data.
type PriceType int

const (
	PriceTypeBid PriceType = iota + 1
	PriceTypeAsk
	PriceTypeMid
	PriceTypeLast
)

func (p PriceType) String() string {
	switch p {
	case PriceTypeBid:
		return "BID"
	case PriceTypeAsk:
		return "ASK"
	case PriceTypeMid:
		return "MID"
	case PriceTypeLast:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// ParsePriceType parses the wire/config representation of a PriceType.
func ParsePriceType(value string) (PriceType, bool) {
	switch value {
	case "BID":
		return PriceTypeBid, true
	case "ASK":
		return PriceTypeAsk, true
	case "MID":
		return PriceTypeMid, true
	case "LAST":
		return PriceTypeLast, true
	default:
		return 0, false
	}
}

// Maker indicates which side of a trade was the resting order.
type Maker int

const (
	MakerBuyer Maker = iota + 1
	MakerSeller
)

func (m Maker) String() string {
	switch m {
	case MakerBuyer:
		return "BUYER"
	case MakerSeller:
		return "SELLER"
	default:
		return "UNKNOWN"
	}
}

// ParseMaker parses the wire representation of a Maker.
func ParseMaker(value string) (Maker, bool) {
	switch value {
	case "BUYER":
		return MakerBuyer, true
	case "SELLER":
		return MakerSeller, true
	default:
		return 0, false
	}
}

// OMSType is the order-management policy of a simulated venue.
// NETTING aggregates fills per (venue, symbol) into one position;
// HEDGING opens a uniquely identified position per opening fill.
type OMSType int

const (
	OMSNetting OMSType = iota + 1
	OMSHedging
)

func (o OMSType) String() string {
	switch o {
	case OMSNetting:
		return "NETTING"
	case OMSHedging:
		return "HEDGING"
	default:
		return "UNKNOWN"
	}
}

// ParseOMSType parses the config representation of an OMSType.
func ParseOMSType(value string) (OMSType, bool) {
	switch value {
	case "NETTING":
		return OMSNetting, true
	case "HEDGING":
		return OMSHedging, true
	default:
		return 0, false
	}
}

// BarAggregation is the time unit over which a bar aggregates.
type BarAggregation int

const (
	AggregationSecond BarAggregation = iota + 1
	AggregationMinute
	AggregationHour
	AggregationDay
)

func (a BarAggregation) String() string {
	switch a {
	case AggregationSecond:
		return "SECOND"
	case AggregationMinute:
		return "MINUTE"
	case AggregationHour:
		return "HOUR"
	case AggregationDay:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

// ParseBarAggregation parses the wire/config representation of a BarAggregation.
func ParseBarAggregation(value string) (BarAggregation, bool) {
	switch value {
	case "SECOND":
		return AggregationSecond, true
	case "MINUTE":
		return AggregationMinute, true
	case "HOUR":
		return AggregationHour, true
	case "DAY":
		return AggregationDay, true
	default:
		return 0, false
	}
}

// OrderSide is the direction of an order.
type OrderSide int

const (
	SideBuy OrderSide = iota + 1
	SideSell
)

func (s OrderSide) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderType is the execution style of an order.
type OrderType int

const (
	OrderMarket OrderType = iota + 1
	OrderLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderMarket:
		return "MARKET"
	case OrderLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}
