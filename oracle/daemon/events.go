package daemon

import (
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

func attribute(ev abci.Event, key string) string {
	for _, attr := range ev.Attributes {
		if string(attr.Key) == key {
			return string(attr.Value)
		}
	}
	return ""
}

// logEvents reports round outcomes.
func logEvents(height int64, events []abci.Event) {
	for _, ev := range events {
		switch ev.Type {
		case rotypes.EventTypeRatesFulfilled:
			log.Infof("height %d: rates fulfilled for %s: %s",
				height, attribute(ev, rotypes.AttributeKeyRequestID), attribute(ev, rotypes.AttributeKeyRates))
		case rotypes.EventTypeRateRequestFailed:
			log.Errorf("height %d: request %s failed: %s",
				height, attribute(ev, rotypes.AttributeKeyRequestID), attribute(ev, rotypes.AttributeKeyError))
		case rotypes.EventTypeHistoryCleaned:
			log.Infof("height %d: history cleaned %s -> %s",
				height, attribute(ev, rotypes.AttributeKeyLengthBefore), attribute(ev, rotypes.AttributeKeyLengthAfter))
		}
	}
}
