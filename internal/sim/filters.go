package sim

import (
	"fmt"
	"strings"

	"github.com/avolkov/backsim/internal/domain"
)

// StreamFilters gates which symbols are admitted to a run. Zero value
// admits everything.
type StreamFilters struct {
	WhiteList    []string `yaml:"white_list"`
	BlackList    []string `yaml:"black_list"`
	QuoteAsset   string   `yaml:"quote_asset"` // e.g. "USDT": symbol suffix filter
	MinVolume    float64  `yaml:"min_volume"`  // total stream volume
	MaxVolume    float64  `yaml:"max_volume"`
	MinTickCount int      `yaml:"min_tick_count"`
}

// Check reports whether the stream passes, with a reason when it does
// not.
func (f StreamFilters) Check(stream *domain.TradeStream) (bool, string) {
	symbol := stream.Symbol

	for _, s := range f.BlackList {
		if s == symbol {
			return false, "blacklisted"
		}
	}

	if len(f.WhiteList) > 0 {
		found := false
		for _, s := range f.WhiteList {
			if s == symbol {
				found = true
				break
			}
		}
		if !found {
			return false, "not whitelisted"
		}
	}

	if f.QuoteAsset != "" && !strings.HasSuffix(symbol, f.QuoteAsset) {
		return false, fmt.Sprintf("quote asset is not %s", f.QuoteAsset)
	}

	if f.MinTickCount > 0 && len(stream.Trades) < f.MinTickCount {
		return false, fmt.Sprintf("only %d ticks, need %d", len(stream.Trades), f.MinTickCount)
	}

	if f.MinVolume > 0 || f.MaxVolume > 0 {
		volume := stream.TotalVolume()
		if f.MinVolume > 0 && volume < f.MinVolume {
			return false, fmt.Sprintf("volume %.2f below minimum %.2f", volume, f.MinVolume)
		}
		if f.MaxVolume > 0 && volume > f.MaxVolume {
			return false, fmt.Sprintf("volume %.2f above maximum %.2f", volume, f.MaxVolume)
		}
	}

	return true, ""
}
