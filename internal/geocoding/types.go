package geocoding

import "github.com/jonesrussell/north-cloud/geotagger/internal/domain"

// Request parameters sent with every lookup.
const (
	Locale      = "en_US"
	CountryCode = "US"
	ExactMatch  = "EXACT_MATCH"
	// BulkLimit caps the summaries returned per keyword in a bulk request.
	BulkLimit = 10
)

// Summary is a geocoded location. The first address component is the
// location itself; the rest are its ancestors.
type Summary struct {
	AddressComponents []domain.AddressComponent `json:"addressComponents"`
}

// Reconstruct turns a summary into a candidate. It reports false for a
// summary without components.
func Reconstruct(s Summary, source domain.Source, salience float64) (domain.LocationCandidate, bool) {
	if len(s.AddressComponents) == 0 {
		return domain.LocationCandidate{}, false
	}

	self := s.AddressComponents[0]
	ancestors := make([]domain.AddressComponent, len(s.AddressComponents)-1)
	copy(ancestors, s.AddressComponents[1:])

	return domain.LocationCandidate{
		LocationID:        self.LocationID,
		LocationName:      self.LocationName,
		LocationType:      self.LocationType,
		Source:            source,
		Salience:          salience,
		AddressComponents: ancestors,
	}, true
}

type bulkRequestItem struct {
	Keyword     string `json:"keyword"`
	CountryCode string `json:"countryCode"`
	Method      string `json:"method"`
	Locale      string `json:"locale"`
	Limit       int    `json:"limit"`
}

type bulkRequest struct {
	Requests []bulkRequestItem `json:"requests"`
}

type bulkResponseItem struct {
	Locations []Summary `json:"locations"`
}

type bulkResponse struct {
	Responses []bulkResponseItem `json:"responses"`
}
