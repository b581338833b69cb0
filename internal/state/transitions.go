package state

// validTransitions contains the permitted transitions other than returning to idle.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingInfoSymbol,
		StateAwaitingPriceSymbol,
		StateAwaitingChartSymbol,
	},
	StateAwaitingInfoSymbol: {
		StateAwaitingInfoSymbol,
		StateAwaitingPriceSymbol,
		StateAwaitingChartSymbol,
	},
	StateAwaitingPriceSymbol: {
		StateAwaitingInfoSymbol,
		StateAwaitingPriceSymbol,
		StateAwaitingChartSymbol,
	},
	StateAwaitingChartSymbol: {
		StateAwaitingInfoSymbol,
		StateAwaitingPriceSymbol,
		StateAwaitingChartSymbol,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Any state may return to idle; a new mode selection replaces a pending one.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
