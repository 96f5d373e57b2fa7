// Package domain holds the request-scoped types shared by the tagging
// stages: candidates, article events and tagging results.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedCandidate marks a candidate without name or type, or of type COUNTRY.
	ErrMalformedCandidate = errors.New("malformed location candidate")
	// ErrInsufficientHierarchy marks a candidate whose address components do
	// not resolve a state (and county, for localities where present).
	ErrInsufficientHierarchy = errors.New("insufficient location hierarchy")
)

// LocationType is the level of a location in the geographic hierarchy.
type LocationType string

const (
	Country      LocationType = "COUNTRY"
	AdminArea    LocationType = "ADMIN_AREA"
	SubAdminArea LocationType = "SUB_ADMIN_AREA"
	Locality     LocationType = "LOCALITY"
)

// NeedsAdminArea reports whether candidates of this type must resolve an
// admin area from their address components.
func (t LocationType) NeedsAdminArea() bool {
	return t == Locality || t == SubAdminArea
}

// Source records which extractor produced a candidate.
type Source string

const (
	SourceGoogleEntity   Source = "GoogleEntity"
	SourceWikiMatch      Source = "WikiMatch"
	SourceLocalPublisher Source = "LocalPublisher"
	SourceFeatures       Source = "Features"
)

// ID is an identifier that collaborators send either as a JSON string or a
// JSON number.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Scan reads an ID from a string or integer column.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ""
	case string:
		*id = ID(v)
	case []byte:
		*id = ID(v)
	case int64:
		*id = ID(strconv.FormatInt(v, 10))
	default:
		return fmt.Errorf("scan id: unsupported type %T", src)
	}
	return nil
}

// AddressComponent is one ancestor of a location.
type AddressComponent struct {
	LocationID   ID           `json:"locationId,omitempty"`
	LocationName string       `json:"locationName"`
	LocationType LocationType `json:"locationType"`
}

// AdminFeatures is the evidence the disambiguator found for one admin-area
// hypothesis.
type AdminFeatures struct {
	SpecificMention bool    `json:"specific_mention,omitempty"`
	FromURL         bool    `json:"from_url,omitempty"`
	FromPublisher   bool    `json:"from_publisher,omitempty"`
	FromText        bool    `json:"from_text,omitempty"`
	StatCount       float64 `json:"stat:count,omitempty"`
}

// FilterFeatures carries the classifier input and output for a candidate.
type FilterFeatures struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
	// Pred is nil when the classifier failed.
	Pred *int    `json:"pred"`
	Prob float64 `json:"prob"`
	// GT is the ground-truth label, set in train mode only.
	GT *int `json:"gt,omitempty"`
}

// LocationCandidate is a location hypothesis. Extractors create it; the
// disambiguator and feature builder annotate it.
type LocationCandidate struct {
	LocationID        ID                 `json:"locationId"`
	LocationName      string             `json:"locationName"`
	LocationType      LocationType       `json:"locationType"`
	Source            Source             `json:"source"`
	Salience          float64            `json:"salience"`
	AddressComponents []AddressComponent `json:"addressComponents"`
	InclusionTest     bool               `json:"inclusion_test,omitempty"`

	Algorithm      string                   `json:"algorithm,omitempty"`
	Features       map[string]AdminFeatures `json:"features"`
	FilterFeatures *FilterFeatures          `json:"filterFeatures,omitempty"`
	ComboName      string                   `json:"comboName,omitempty"`
}

// Key groups candidates that collide on name and type.
func (c *LocationCandidate) Key() string {
	return c.LocationName + ":" + string(c.LocationType)
}

// Validate rejects candidates that must not enter disambiguation.
func (c *LocationCandidate) Validate() error {
	if c.LocationName == "" || c.LocationType == "" {
		return fmt.Errorf("%w: missing name or type (%q/%q)", ErrMalformedCandidate, c.LocationName, c.LocationType)
	}
	if c.LocationType == Country {
		return fmt.Errorf("%w: %s is a country", ErrMalformedCandidate, c.LocationName)
	}
	return nil
}

// Component returns the name of the first address component of type t, or
// the candidate's own name when it is of type t.
func (c *LocationCandidate) Component(t LocationType) (string, bool) {
	if c.LocationType == t {
		return c.LocationName, true
	}
	for _, ac := range c.AddressComponents {
		if ac.LocationType == t {
			return ac.LocationName, true
		}
	}
	return "", false
}

// AdminAreaKey returns the lower-cased admin area of the candidate.
func (c *LocationCandidate) AdminAreaKey() (string, bool) {
	name, ok := c.Component(AdminArea)
	if !ok {
		return "", false
	}
	return strings.ToLower(name), true
}

// Hierarchy returns [name], [name, state] or [name, county, state]. The last
// county and state components win.
func (c *LocationCandidate) Hierarchy() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.LocationType == AdminArea {
		return []string{c.LocationName}, nil
	}

	var county, state string
	for _, ac := range c.AddressComponents {
		switch ac.LocationType {
		case SubAdminArea:
			county = ac.LocationName
		case AdminArea:
			state = ac.LocationName
		case Country, Locality:
		}
	}

	switch {
	case c.LocationType == SubAdminArea && state != "":
		return []string{c.LocationName, state}, nil
	case c.LocationType == Locality && county != "" && state != "":
		return []string{c.LocationName, county, state}, nil
	case c.LocationType == Locality && state != "":
		return []string{c.LocationName, state}, nil
	default:
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrInsufficientHierarchy, c.LocationName, county, state)
	}
}

// SameNameLocation is another location sharing a candidate's name.
type SameNameLocation struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	AdminArea string `json:"admin_area"`
}

// Feature rule conditions.
const (
	ConditionInclude = "INCLUDE"
	ConditionExclude = "EXCLUDE"
)

// LocationFeature ties an article feature to a location. INCLUDE rules add
// the location; an EXCLUDE feature on the article suppresses every rule.
type LocationFeature struct {
	ID            int64  `db:"id"             json:"id"`
	LocationID    ID     `db:"location_id"    json:"location_id"`
	Feature       string `db:"feature"        json:"feature"`
	ConditionType string `db:"condition_type" json:"condition_type"`
}
