package market

import (
	"fmt"
	"time"
)

// Timeframe is a candle period in minutes. The engine works on three:
// a fast tick frame, a decision frame, and a macro context frame.
type Timeframe int

const (
	M5  Timeframe = 5
	M15 Timeframe = 15
	H1  Timeframe = 60
)

func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf) * time.Minute
}

func (tf Timeframe) String() string {
	if tf >= 60 && tf%60 == 0 {
		return fmt.Sprintf("H%d", int(tf)/60)
	}
	return fmt.Sprintf("M%d", int(tf))
}
