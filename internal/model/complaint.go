// Package model defines the core domain types shared across the pipeline:
// 311 service requests, census tracts, and per-tract complaint summaries.
package model

import (
	"time"
)

// Complaint is a single 311 service request. Records are immutable once
// ingested; downstream stages read them and never mutate.
type Complaint struct {
	UniqueKey       int64      `json:"unique_key"`
	CreatedDate     time.Time  `json:"created_date"`
	ClosedDate      *time.Time `json:"closed_date,omitempty"`
	Agency          string     `json:"agency,omitempty"`
	ComplaintType   string     `json:"complaint_type"`
	Descriptor      string     `json:"descriptor,omitempty"`
	Status          string     `json:"status,omitempty"`
	IncidentZip     string     `json:"incident_zip,omitempty"`
	IncidentAddress string     `json:"incident_address,omitempty"`
	Borough         string     `json:"borough,omitempty"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
}

// HasLocation reports whether the complaint carries usable coordinates.
// Socrata exports leave both fields zero when the request had no geocode,
// and (0, 0) is in the Gulf of Guinea, not New York.
func (c Complaint) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// JoinedComplaint is a complaint augmented with the GEOID of the census
// tract whose polygon contains its point. Tract is empty for complaints
// that fall outside every tract; those are reported as unassigned.
type JoinedComplaint struct {
	Complaint
	TractGEOID string `json:"tract_geoid,omitempty"`
}

// Assigned reports whether the spatial join found a containing tract.
func (j JoinedComplaint) Assigned() bool { return j.TractGEOID != "" }
