package market

import "time"

// Candle is one closed OHLCV bar.
type Candle struct {
	Time   time.Time // open time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
