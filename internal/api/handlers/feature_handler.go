package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"sharedstreets/internal/domain/entities"
	"sharedstreets/internal/services"
	"sharedstreets/pkg/ssid"
)

type FeatureHandler struct {
	identifierService *services.IdentifierService
}

func NewFeatureHandler(identifierService *services.IdentifierService) *FeatureHandler {
	return &FeatureHandler{
		identifierService: identifierService,
	}
}

// GetFeature handles GET /v1/features/:id
func (h *FeatureHandler) GetFeature(c *gin.Context) {
	record, err := h.identifierService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Tile handles GET /v1/tiles/:z/:x/:y. With ?as=geojson the records are
// returned as a GeoJSON FeatureCollection.
func (h *FeatureHandler) Tile(c *gin.Context) {
	tile, err := parseTile(c.Param("z"), c.Param("x"), c.Param("y"))
	if err != nil {
		badRequest(c, err)
		return
	}

	records, err := h.identifierService.InTile(c.Request.Context(), tile)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("as") == "geojson" {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, featureCollection(records))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tile":     gin.H{"z": tile.Z, "x": tile.X, "y": tile.Y},
		"count":    len(records),
		"features": records,
	})
}

func parseTile(z, x, y string) (maptile.Tile, error) {
	zoom, err := strconv.ParseUint(z, 10, 8)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("tile zoom %q: %w", z, err)
	}
	tx, err := strconv.ParseUint(x, 10, 32)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("tile x %q: %w", x, err)
	}
	ty, err := strconv.ParseUint(y, 10, 32)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("tile y %q: %w", y, err)
	}
	return maptile.New(uint32(tx), uint32(ty), maptile.Zoom(zoom)), nil
}

// featureCollection renders stored records as GeoJSON. Geometries become
// LineStrings, intersections Points, references the MultiPoint of their two
// ends.
func featureCollection(records []*entities.Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		var g orb.Geometry
		switch {
		case rec.Kind == ssid.KindGeometry.String():
			g = orb.LineString(rec.Points)
		case len(rec.Points) == 1:
			g = rec.Points[0]
		default:
			g = orb.MultiPoint(rec.Points)
		}

		f := geojson.NewFeature(g)
		f.ID = rec.ID
		f.Properties["kind"] = rec.Kind
		f.Properties["format"] = rec.Format.String()
		f.Properties["message"] = rec.Message
		fc.Append(f)
	}
	return fc
}
