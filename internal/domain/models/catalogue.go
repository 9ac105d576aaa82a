package models

import "fmt"

var macroFeatures = []string{"DXY", "VIX", "Yield_10Y", "Sentiment"}

// StockTickers are the equities and ETFs covered by the default catalogue.
var StockTickers = []string{"SPY", "QQQ", "DIA", "AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "TSM"}

var stockNames = map[string]string{
	"SPY":   "S&P 500 ETF",
	"QQQ":   "Nasdaq 100 ETF",
	"DIA":   "Dow Jones ETF",
	"AAPL":  "Apple",
	"MSFT":  "Microsoft",
	"GOOGL": "Alphabet",
	"AMZN":  "Amazon",
	"NVDA":  "NVIDIA",
	"META":  "Meta Platforms",
	"TSLA":  "Tesla",
	"TSM":   "TSMC",
}

// DefaultCatalogue returns the built-in asset profiles keyed by id.
func DefaultCatalogue() map[string]AssetProfile {
	out := make(map[string]AssetProfile, len(StockTickers)+2)

	add := func(id, name string, class AssetClass, features []string, seq int) {
		p, err := NewAssetProfile(id, name, class, features, seq)
		if err != nil {
			panic(fmt.Sprintf("default catalogue: %v", err))
		}
		out[id] = p
	}

	add("gold", "Gold", ClassMetal, withMacro("Gold", "EMA_90"), 60)
	add("btc", "Bitcoin", ClassCrypto, withMacro("BTC", "Halving_Cycle", "EMA_90"), 90)
	for _, t := range StockTickers {
		class := ClassEquity
		if t == "SPY" || t == "QQQ" || t == "DIA" {
			class = ClassIndex
		}
		add(t, stockNames[t], class, withMacro(t, "EMA_90"), 60)
	}
	return out
}

func withMacro(price string, extra ...string) []string {
	out := make([]string, 0, 1+len(macroFeatures)+len(extra))
	out = append(out, price)
	out = append(out, macroFeatures...)
	return append(out, extra...)
}

// ParseAssetClass converts a config string, defaulting to equity.
func ParseAssetClass(s string) AssetClass {
	switch AssetClass(s) {
	case ClassMetal, ClassCrypto, ClassIndex:
		return AssetClass(s)
	default:
		return ClassEquity
	}
}
