// Package model defines the incident record types flowing through the pipeline.
package model

import "time"

// OffenseCategory is the closed taxonomy for offense descriptions. Every
// enriched record carries exactly one of these values; free text never
// leaks through.
type OffenseCategory string

const (
	CategoryTheft          OffenseCategory = "Theft"
	CategoryTraffic        OffenseCategory = "Traffic"
	CategoryAssault        OffenseCategory = "Assault"
	CategoryPropertyDamage OffenseCategory = "Property Damage"
	CategoryDrugsAlcohol   OffenseCategory = "Drugs/Alcohol"
	CategoryMentalHealth   OffenseCategory = "Mental Health"
	CategoryDisturbance    OffenseCategory = "Noise/Disturbance"
	CategoryFraud          OffenseCategory = "Fraud"
	CategoryWarrant        OffenseCategory = "Warrant"
	CategoryOther          OffenseCategory = "Other"
	CategoryUnknown        OffenseCategory = "Unknown"
)

// Categories lists every valid offense category in classifier priority
// order. The order is a behavioral contract: a description matching
// keywords from two categories resolves to the earlier one.
var Categories = []OffenseCategory{
	CategoryTheft,
	CategoryTraffic,
	CategoryAssault,
	CategoryPropertyDamage,
	CategoryDrugsAlcohol,
	CategoryMentalHealth,
	CategoryDisturbance,
	CategoryFraud,
	CategoryWarrant,
	CategoryOther,
	CategoryUnknown,
}

// ValidCategory reports whether s is a member of the closed taxonomy.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// LocationSpecificity classifies how precise a geocoded location is.
type LocationSpecificity string

const (
	SpecIntersection  LocationSpecificity = "intersection"
	SpecStreetAddress LocationSpecificity = "street_address_or_premise"
	SpecRoute         LocationSpecificity = "route"
	SpecSpecificPlace LocationSpecificity = "specific_place"
	SpecGeneralArea   LocationSpecificity = "general_area_or_other"
	SpecUnknown       LocationSpecificity = "unknown"
	SpecInvalidInput  LocationSpecificity = "invalid_input"
	SpecNotFound      LocationSpecificity = "not_found"
)

// RawRecord is one parsed incident before enrichment. Fields hold the
// verbatim extracted text; nothing is validated yet.
type RawRecord struct {
	CaseNumber   string `json:"case_number"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	OffenseText  string `json:"offense_type"`
	LocationText string `json:"location"`
	SourceFile   string `json:"source_file"`
}

// Empty reports whether no field beyond provenance is set.
func (r RawRecord) Empty() bool {
	return r.CaseNumber == "" && r.Date == "" && r.Time == "" &&
		r.OffenseText == "" && r.LocationText == ""
}

// GeoResult holds the geocoding output for a location query. A nil
// GeoResult on an EnrichedRecord means the lookup found nothing.
type GeoResult struct {
	Latitude         float64             `json:"latitude"`
	Longitude        float64             `json:"longitude"`
	FormattedAddress string              `json:"formatted_address"`
	MapsURI          string              `json:"google_maps_uri,omitempty"`
	PlaceTypes       []string            `json:"place_types,omitempty"`
	Specificity      LocationSpecificity `json:"location_specificity"`
}

// EnrichedRecord is a RawRecord plus derived fields. Specificity is always
// set once enrichment has been attempted; failure states are recorded
// explicitly rather than left blank.
type EnrichedRecord struct {
	RawRecord
	StreetKey   string              `json:"street_key"`
	Category    OffenseCategory     `json:"offense_category"`
	Geo         *GeoResult          `json:"geo,omitempty"`
	Specificity LocationSpecificity `json:"location_specificity"`
}

// CanonicalIncident is the deduplicated entity used for aggregation.
// ReportDate is the calendar date the source report file covers, which is
// distinct from (and more reliable than) the date parsed from the record
// body.
type CanonicalIncident struct {
	EnrichedRecord
	ReportDate time.Time `json:"report_date"`
}

// IdentityKey is the composite natural key for deduplication. Two records
// sharing a non-empty key are the same incident.
type IdentityKey struct {
	CaseNumber string
	Date       string
}

// Key returns the incident's identity key.
func (c CanonicalIncident) Key() IdentityKey {
	return IdentityKey{CaseNumber: c.CaseNumber, Date: c.Date}
}
