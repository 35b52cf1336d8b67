package valuation

import "valuationcli/pkg/contracts/domain"

// PutCallRatio totals volume and open interest by kind. Each ratio is
// puts/calls and unavailable when the call total is zero.
func PutCallRatio(symbol string, chain []domain.OptionContract) domain.PutCallRatio {
	pcr := domain.PutCallRatio{Symbol: symbol}
	for _, c := range chain {
		switch c.Kind {
		case domain.Call:
			pcr.CallVolume += c.Volume
			pcr.CallOpenInterest += c.OpenInterest
		case domain.Put:
			pcr.PutVolume += c.Volume
			pcr.PutOpenInterest += c.OpenInterest
		}
	}
	pcr.VolumeRatio = ratio(pcr.PutVolume, pcr.CallVolume)
	pcr.OpenInterestRatio = ratio(pcr.PutOpenInterest, pcr.CallOpenInterest)
	return pcr
}

func ratio(num, den int64) domain.Estimate {
	if den == 0 {
		return domain.Estimate{}
	}
	return domain.Available(float64(num) / float64(den))
}
