package analysis

import "sort"

type RankedUtilization struct {
	Rank int `json:"rank"`
	AssetUtilization
}

// RankByCapacityFactor sorts descending by capacity factor, then by asset id.
func RankByCapacityFactor(us []AssetUtilization) []RankedUtilization {
	out := make([]RankedUtilization, 0, len(us))
	for _, u := range us {
		out = append(out, RankedUtilization{AssetUtilization: u})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CapacityFactor != out[j].CapacityFactor {
			return out[i].CapacityFactor > out[j].CapacityFactor
		}
		return out[i].Asset < out[j].Asset
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
