package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"sharedstreets/internal/api/middleware"
	"sharedstreets/internal/services"
	"sharedstreets/pkg/ssid"
)

type IdentifierHandler struct {
	identifierService *services.IdentifierService
}

func NewIdentifierHandler(identifierService *services.IdentifierService) *IdentifierHandler {
	return &IdentifierHandler{
		identifierService: identifierService,
	}
}

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type IntersectionRequest struct {
	Point    Position          `json:"point"`
	Geometry *geojson.Geometry `json:"geometry"`
	NodeID   *int64            `json:"node_id"`
}

type GeometryRequest struct {
	Coordinates []Position        `json:"coordinates"`
	Geometry    *geojson.Geometry `json:"geometry"`
	FormOfWay   EnumValue         `json:"form_of_way"`
	RoadClass   EnumValue         `json:"road_class"`
}

type LocationReferenceRequest struct {
	Point      Position `json:"point" binding:"required"`
	Bearing    *float64 `json:"bearing"`
	Distance   *float64 `json:"distance"` // meters
	OutBearing *float64 `json:"out_bearing"`
}

type ReferenceRequest struct {
	FormOfWay          EnumValue                  `json:"form_of_way"`
	LocationReferences []LocationReferenceRequest `json:"location_references" binding:"required"`
	GeometryID         string                     `json:"geometry_id"`
}

func (r LocationReferenceRequest) toService() (services.LocationReferenceRequest, error) {
	p, err := r.Point.point("point")
	if err != nil {
		return services.LocationReferenceRequest{}, err
	}
	return services.LocationReferenceRequest{
		Point:      p,
		Bearing:    r.Bearing,
		Distance:   r.Distance,
		OutBearing: r.OutBearing,
	}, nil
}

// Message handles POST /v1/messages
func (h *IdentifierHandler) Message(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.identifierService.MessageID(c.Request.Context(), services.MessageRequest{Message: req.Message}, middleware.GetFormat(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Intersection handles POST /v1/intersections
func (h *IdentifierHandler) Intersection(c *gin.Context) {
	var req IntersectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := pointFrom(req.Point, req.Geometry)
	if err != nil {
		badRequest(c, err)
		return
	}

	f := middleware.GetFormat(c)
	in, err := h.identifierService.Intersection(c.Request.Context(), services.IntersectionRequest{Point: p, NodeID: req.NodeID}, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":       h.format(f),
		"intersection": in,
	})
}

// Geometry handles POST /v1/geometries
func (h *IdentifierHandler) Geometry(c *gin.Context) {
	var req GeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	line, err := lineFrom(req.Coordinates, req.Geometry)
	if err != nil {
		badRequest(c, err)
		return
	}
	fow, err := ssid.ParseFormOfWay(string(req.FormOfWay))
	if err != nil {
		respondError(c, err)
		return
	}
	rc, err := ssid.ParseRoadClass(string(req.RoadClass))
	if err != nil {
		respondError(c, err)
		return
	}

	f := middleware.GetFormat(c)
	res, err := h.identifierService.Geometry(c.Request.Context(), services.GeometryRequest{
		Line:      line,
		FormOfWay: fow,
		RoadClass: rc,
	}, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":           h.format(f),
		"geometry":         res.Geometry,
		"fromIntersection": res.FromIntersection,
		"toIntersection":   res.ToIntersection,
		"forwardReference": res.ForwardReference,
		"backReference":    res.BackReference,
	})
}

// LocationReference handles POST /v1/location-references
func (h *IdentifierHandler) LocationReference(c *gin.Context) {
	var req LocationReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sreq, err := req.toService()
	if err != nil {
		badRequest(c, err)
		return
	}

	f := middleware.GetFormat(c)
	lr, err := h.identifierService.LocationReference(c.Request.Context(), sreq, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":            h.format(f),
		"locationReference": lr,
	})
}

// Reference handles POST /v1/references
func (h *IdentifierHandler) Reference(c *gin.Context) {
	var req ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if len(req.LocationReferences) != 2 {
		badRequest(c, fmt.Errorf("location_references: want exactly 2, got %d", len(req.LocationReferences)))
		return
	}
	fow, err := ssid.ParseFormOfWay(string(req.FormOfWay))
	if err != nil {
		respondError(c, err)
		return
	}

	sreq := services.ReferenceRequest{FormOfWay: fow, GeometryID: req.GeometryID}
	for i, lr := range req.LocationReferences {
		if sreq.LocationReferences[i], err = lr.toService(); err != nil {
			badRequest(c, fmt.Errorf("location_references[%d]: %w", i, err))
			return
		}
	}

	f := middleware.GetFormat(c)
	ref, err := h.identifierService.Reference(c.Request.Context(), sreq, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":    h.format(f),
		"reference": ref,
	})
}

func (h *IdentifierHandler) format(f ssid.Format) ssid.Format {
	if f == "" {
		return h.identifierService.DefaultFormat()
	}
	return f
}
