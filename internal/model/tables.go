package model

// Tables is the canonical set of entity tables consumed by the model builders.
//
// Tables are populated once at load time and are read-only afterwards. Every builder takes
// them as an explicit argument; nothing is cached between runs.
type Tables struct {
	Regions  []Region
	Carriers []Carrier
	Assets   []Asset
	Links    []AssetCarrierLink
	Years    []AssetYear
	Demands  []Demand
	Time     TimeStructure
}

// AssetByID returns the asset with the given id.
func (t *Tables) AssetByID(id string) (Asset, bool) {
	for _, a := range t.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// LinksByAsset groups asset x carrier links by asset, preserving input order.
func (t *Tables) LinksByAsset() map[string][]AssetCarrierLink {
	out := make(map[string][]AssetCarrierLink)
	for _, l := range t.Links {
		out[l.Asset] = append(out[l.Asset], l)
	}
	return out
}
