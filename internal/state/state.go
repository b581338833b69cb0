package state

import (
	"fmt"
	"time"
)

// State represents a conversation state.
type State string

const (
	// StateIdle indicates that no follow-up text is expected.
	StateIdle State = "idle"
	// StateAwaitingInfoSymbol waits for a ticker to show coin info for.
	StateAwaitingInfoSymbol State = "awaiting_info_symbol"
	// StateAwaitingPriceSymbol waits for a ticker to quote a price for.
	StateAwaitingPriceSymbol State = "awaiting_price_symbol"
	// StateAwaitingChartSymbol waits for a ticker to chart.
	StateAwaitingChartSymbol State = "awaiting_chart_symbol"
)

// Lookup modes carried by buttons and commands.
const (
	ModePrice = "price"
	ModeInfo  = "info"
	ModeChart = "chart"
)

var modeStates = map[string]State{
	ModePrice: StateAwaitingPriceSymbol,
	ModeInfo:  StateAwaitingInfoSymbol,
	ModeChart: StateAwaitingChartSymbol,
}

// AwaitingStateFor returns the waiting state entered by choosing mode.
func AwaitingStateFor(mode string) (State, bool) {
	s, ok := modeStates[mode]
	return s, ok
}

// Mode returns the lookup mode a waiting state collects a ticker for.
func (s State) Mode() string {
	for mode, st := range modeStates {
		if st == s {
			return mode
		}
	}
	return ""
}

// IsAwaiting reports whether s expects a follow-up text message.
func (s State) IsAwaiting() bool {
	return s.Mode() != ""
}

// SessionID identifies one user's conversation within one chat.
type SessionID struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (id SessionID) String() string {
	return fmt.Sprintf("%d:%d", id.ChatID, id.UserID)
}

// Session captures the pending conversation state for one SessionID.
type Session struct {
	ID        SessionID `json:"id"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}
