package models

import (
	"encoding/json"
	"time"
)

// GeoPoint represents a geographic location with latitude and longitude
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Endpoint is a route start or destination with an optional address
type Endpoint struct {
	GeoPoint
	Address string `json:"address,omitempty"`
}

// ReportType is the category of a community report
type ReportType string

const (
	ReportHarassment   ReportType = "harassment"
	ReportSuspicious   ReportType = "suspicious"
	ReportIsolated     ReportType = "isolated"
	ReportPoorLighting ReportType = "poor_lighting"
	ReportSafeZone     ReportType = "safe_zone"
)

// ReportTypes lists the known report categories
var ReportTypes = []ReportType{
	ReportHarassment,
	ReportSuspicious,
	ReportIsolated,
	ReportPoorLighting,
	ReportSafeZone,
}

// NormalizeReportType maps legacy short names onto the canonical categories.
func NormalizeReportType(s string) ReportType {
	switch s {
	case "lighting":
		return ReportPoorLighting
	case "safe":
		return ReportSafeZone
	}
	return ReportType(s)
}

// Valid reports whether t is one of the known categories
func (t ReportType) Valid() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both canonical and legacy type names
func (t *ReportType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = NormalizeReportType(s)
	return nil
}

// CommunityReport is a user-submitted, geolocated safety observation
type CommunityReport struct {
	ID            string     `json:"id"`
	Type          ReportType `json:"type"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	Location      GeoPoint   `json:"location"`
	Timestamp     time.Time  `json:"timestamp"`
	IsAnonymous   bool       `json:"isAnonymous"`
	Username      string     `json:"username,omitempty"`
	VerifiedCount int        `json:"verifiedCount"`
	Helpful       int        `json:"helpful"`
}

// Response is a single questionnaire answer
type Response struct {
	Value string `json:"value"`
	Risk  int    `json:"risk"`
}

// SafetyEvaluation is the stored result of a self-assessment questionnaire
type SafetyEvaluation struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Location   *GeoPoint           `json:"location,omitempty"`
	Level      string              `json:"level,omitempty"`
	Percentage float64             `json:"percentage"`
	Responses  map[string]Response `json:"responses,omitempty"`
}

// Waypoint is a route coordinate annotated with its safety score
type Waypoint struct {
	GeoPoint
	SafetyScore float64 `json:"safetyScore"`
}

// Severity grades a dangerous waypoint
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// DangerousPoint is a waypoint scoring below the danger threshold
type DangerousPoint struct {
	Waypoint
	Index    int      `json:"index"`
	Severity Severity `json:"severity"`
}

// EstimatedTime is a travel duration estimate
type EstimatedTime struct {
	Hours   float64 `json:"hours"`
	Minutes int     `json:"minutes"`
}

// RouteID names one of the three route variants
type RouteID string

const (
	RouteSafest   RouteID = "safest"
	RouteFastest  RouteID = "fastest"
	RouteBalanced RouteID = "balanced"
)

// Route is one synthesized route alternative
type Route struct {
	ID              RouteID          `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Waypoints       []Waypoint       `json:"waypoints"`
	SafetyScore     int              `json:"safetyScore"`
	DistanceKm      float64          `json:"distanceKm"`
	EstimatedTime   EstimatedTime    `json:"estimatedTime"`
	DangerousPoints []DangerousPoint `json:"dangerousPoints"`
	Color           string           `json:"color"`
	Icon            string           `json:"icon"`
	Recommended     bool             `json:"recommended"`
}

// Priority ranks an advisory message
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a human-readable advisory attached to a route
type Recommendation struct {
	Priority Priority `json:"priority"`
	Icon     string   `json:"icon"`
	Message  string   `json:"message"`
	Action   string   `json:"action,omitempty"`
}

// RouteHistoryRecord is a route the user confirmed
type RouteHistoryRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Start           Endpoint  `json:"start"`
	End             Endpoint  `json:"end"`
	SelectedRouteID RouteID   `json:"selectedRoute"`
	SafetyScore     int       `json:"safetyScore"`
	DistanceKm      float64   `json:"distance"`
	DurationMinutes int       `json:"duration"`
}

// Stats aggregates the route history
type Stats struct {
	TotalRoutes           int     `json:"totalRoutes"`
	AvgSafetyScore        int     `json:"avgSafetyScore"`
	TotalDistanceKm       float64 `json:"totalDistance"`
	SafeRoutesPercentage  int     `json:"safeRoutesPercentage"`
	RiskyRoutesPercentage int     `json:"riskyRoutesPercentage"`
	MostCommonStartArea   string  `json:"mostCommonStartArea"`
	MostCommonEndArea     string  `json:"mostCommonEndArea"`
}
