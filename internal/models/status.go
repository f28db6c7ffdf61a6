package models

const (
	StatusReceived  = "Order Received"
	StatusInKitchen = "In the Kitchen"
	StatusDelivery  = "Sent to Delivery"
	StatusDelivered = "Delivered"
)

// statusRank orders the lifecycle; transitions must move strictly forward.
var statusRank = map[string]int{
	StatusReceived:  0,
	StatusInKitchen: 1,
	StatusDelivery:  2,
	StatusDelivered: 3,
}

// ValidStatus reports whether s is one of the four lifecycle statuses.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from current to next.
// Backward moves and repeats are rejected; skipping ahead is allowed so an
// operator can mark a hand-delivered order Delivered straight away.
func CanTransition(current, next string) bool {
	from, ok := statusRank[current]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}
