package argo

// regions.go - Static geographic region classification
//
// A region label is a pure function of latitude and longitude: the first
// bounding box containing the point wins, otherwise the open-ocean
// fallback applies. No external lookup is involved.

// Region labels produced by ClassifyRegion.
const (
	RegionArabianSea  = "Arabian Sea"
	RegionBayOfBengal = "Bay of Bengal"
	RegionIndianOcean = "Indian Ocean"
)

// regionBox couples a label with its bounding box.
type regionBox struct {
	Name string
	Box  Bounds
}

// Marginal seas checked before the open-ocean fallback. Boxes follow the
// conventional Indian Ocean split along 75°E.
var regionBoxes = []regionBox{
	{Name: RegionArabianSea, Box: Bounds{LatMin: 5, LatMax: 25, LonMin: 50, LonMax: 75}},
	{Name: RegionBayOfBengal, Box: Bounds{LatMin: 5, LatMax: 25, LonMin: 75, LonMax: 95}},
}

// ClassifyRegion returns the region label for a coordinate pair.
// Thread-safety: stateless, read-only access.
func ClassifyRegion(lat, lon float64) string {
	for _, rb := range regionBoxes {
		if rb.Box.Contains(lat, lon) {
			return rb.Name
		}
	}
	return RegionIndianOcean
}

// Regions returns all region labels the classifier can produce.
func Regions() []string {
	return []string{RegionArabianSea, RegionBayOfBengal, RegionIndianOcean}
}
