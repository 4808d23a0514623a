package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/evaluation"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/saferoute"
	"github.com/1F47E/camina-segura/pkg/store"
)

// DefaultNearRadiusKm is used by GET /reports when no radius is given
const DefaultNearRadiusKm = 1.0

// Handler serves the engine's operations
type Handler struct {
	engine *saferoute.Engine
	log    logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(engine *saferoute.Engine, log logrus.FieldLogger) *Handler {
	return &Handler{engine: engine, log: log}
}

// PointRequest is a coordinate in a request body
type PointRequest struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

func (p PointRequest) point() models.GeoPoint {
	return models.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// EndpointRequest is a route start or destination
type EndpointRequest struct {
	Lat     float64 `json:"lat" binding:"min=-90,max=90"`
	Lng     float64 `json:"lng" binding:"min=-180,max=180"`
	Address string  `json:"address"`
}

func (e EndpointRequest) endpoint() models.Endpoint {
	return models.Endpoint{GeoPoint: models.GeoPoint{Lat: e.Lat, Lng: e.Lng}, Address: e.Address}
}

// RoutesRequest asks for the three route variants
type RoutesRequest struct {
	Start EndpointRequest `json:"start"`
	End   EndpointRequest `json:"end"`
}

// SaveHistoryRequest confirms a route
type SaveHistoryRequest struct {
	Route models.Route    `json:"route"`
	Start EndpointRequest `json:"start"`
	End   EndpointRequest `json:"end"`
}

// ScoreQuery is the query string of GET /score
type ScoreQuery struct {
	Lat *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng *float64 `form:"lng" binding:"required,min=-180,max=180"`
}

// NearQuery optionally filters GET /reports by distance
type NearQuery struct {
	Lat    *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lng    *float64 `form:"lng" binding:"omitempty,min=-180,max=180"`
	Radius float64  `form:"radius" binding:"min=0"`
}

// CreateReportRequest submits a community report
type CreateReportRequest struct {
	Type        models.ReportType `json:"type" binding:"required"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    PointRequest      `json:"location"`
	IsAnonymous bool              `json:"isAnonymous"`
	Username    string            `json:"username"`
}

// EvaluationRequest submits questionnaire answers
type EvaluationRequest struct {
	Answers  map[string]string `json:"answers" binding:"required"`
	Location *PointRequest     `json:"location"`
}

// RouteResponse pairs a route with its advisories
type RouteResponse struct {
	models.Route
	Recommendations []models.Recommendation `json:"recommendations"`
}

// fail writes the status matching err
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, saferoute.ErrInvalidPoint),
		errors.Is(err, saferoute.ErrInvalidReport),
		errors.Is(err, evaluation.ErrInvalidResponse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// CalculateRoutes returns the three routes, each with its recommendations
func (h *Handler) CalculateRoutes(c *gin.Context) {
	var req RoutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	routes, err := h.engine.CalculateSafeRoutes(ctx, req.Start.endpoint(), req.End.endpoint())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		recs, err := h.engine.GetRouteRecommendations(ctx, r)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp = append(resp, RouteResponse{Route: r, Recommendations: recs})
	}

	c.JSON(http.StatusOK, gin.H{"routes": resp})
}

// Recommendations returns the advisories for a posted route
func (h *Handler) Recommendations(c *gin.Context) {
	var route models.Route
	if err := c.ShouldBindJSON(&route); err != nil {
		badRequest(c, err)
		return
	}

	recs, err := h.engine.GetRouteRecommendations(c.Request.Context(), route)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// SaveHistory records a confirmed route
func (h *Handler) SaveHistory(c *gin.Context) {
	var req SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.engine.SaveRouteToHistory(c.Request.Context(), req.Route, req.Start.endpoint(), req.End.endpoint()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListHistory returns saved routes, newest first
func (h *Handler) ListHistory(c *gin.Context) {
	records, err := h.engine.History(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []models.RouteHistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// Statistics returns the history summary, 204 when there is none
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.engine.GetRouteStatistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if stats == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Score returns the safety score of one coordinate
func (h *Handler) Score(c *gin.Context) {
	var q ScoreQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	p := models.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}
	score, err := h.engine.ScorePoint(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lat": p.Lat, "lng": p.Lng, "safetyScore": score})
}

// ListReports returns every report, or the ones near lat/lng when given
func (h *Handler) ListReports(c *gin.Context) {
	var q NearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if q.Lat == nil || q.Lng == nil {
		reports, err := h.engine.ListReports(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		if reports == nil {
			reports = []models.CommunityReport{}
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
		return
	}

	radius := q.Radius
	if radius == 0 {
		radius = DefaultNearRadiusKm
	}

	hits, err := h.engine.ReportsNear(ctx, models.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}, radius)
	if err != nil {
		h.fail(c, err)
		return
	}

	type nearReport struct {
		models.CommunityReport
		DistanceKm float64 `json:"distanceKm"`
	}
	reports := make([]nearReport, 0, len(hits))
	for _, hit := range hits {
		reports = append(reports, nearReport{CommunityReport: hit.Report, DistanceKm: hit.DistanceKm})
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// CreateReport stores a community report
func (h *Handler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.engine.AddReport(c.Request.Context(), models.CommunityReport{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location.point(),
		IsAnonymous: req.IsAnonymous,
		Username:    req.Username,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// MarkHelpful increments a report's helpful counter
func (h *Handler) MarkHelpful(c *gin.Context) {
	if err := h.engine.MarkHelpful(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyReport increments a report's verification counter
func (h *Handler) VerifyReport(c *gin.Context) {
	if err := h.engine.VerifyReport(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitEvaluation assesses a questionnaire
func (h *Handler) SubmitEvaluation(c *gin.Context) {
	var req EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var loc *models.GeoPoint
	if req.Location != nil {
		p := req.Location.point()
		loc = &p
	}

	res, err := h.engine.SubmitEvaluation(c.Request.Context(), req.Answers, loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
