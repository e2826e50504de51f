package domain

// ActionKind discriminates strategy actions.
type ActionKind string

const (
	ActionNone         ActionKind = "NO_ACTION"
	ActionPlaceBuy     ActionKind = "PLACE_BUY"
	ActionPlaceSell    ActionKind = "PLACE_SELL"
	ActionReplaceBuy   ActionKind = "REPLACE_BUY"
	ActionCancelOrder  ActionKind = "CANCEL_ORDER"
	ActionDetectSignal ActionKind = "DETECT_SIGNAL"
)

// Action is what a strategy asks the engine to do after seeing a tick.
// Only the fields matching Kind are meaningful.
type Action struct {
	Kind     ActionKind
	Price    float64 // PlaceBuy, PlaceSell
	Size     float64 // PlaceBuy, PlaceSell
	NewPrice float64 // ReplaceBuy
	OrderID  uint64  // CancelOrder
	Message  string  // DetectSignal
}

// NoAction is the zero action.
func NoAction() Action { return Action{Kind: ActionNone} }

// PlaceBuy builds a buy-order action.
func PlaceBuy(price, size float64) Action {
	return Action{Kind: ActionPlaceBuy, Price: price, Size: size}
}

// PlaceSell builds a sell-order action.
func PlaceSell(price, size float64) Action {
	return Action{Kind: ActionPlaceSell, Price: price, Size: size}
}

// ReplaceBuy builds a reposition action for the active buy order.
func ReplaceBuy(newPrice float64) Action {
	return Action{Kind: ActionReplaceBuy, NewPrice: newPrice}
}

// CancelOrder builds a cancellation action.
func CancelOrder(orderID uint64) Action {
	return Action{Kind: ActionCancelOrder, OrderID: orderID}
}

// DetectSignal builds an informational signal action.
func DetectSignal(message string) Action {
	return Action{Kind: ActionDetectSignal, Message: message}
}

// Deltas are rolling percentage price changes handed to strategies on
// every recalculation. BTC deltas are zero when no BTC stream is loaded.
type Deltas struct {
	Delta5m   float64
	Delta15m  float64
	DeltaHour float64
	Delta3h   float64
	Market    float64 // average delta across all loaded symbols
	BTC       float64
	BTC5m     float64
}
