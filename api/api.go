// Package api exposes the artwork cluster queries the web map calls.
package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/runner"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

// Server wires the index manager into HTTP handlers.
type Server struct {
	manager *runner.Manager
	log     *zap.Logger

	// defaultID tracks the most recently created or loaded set, so the
	// map client can query without naming one.
	defaultID string
}

func NewServer(manager *runner.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{manager: manager, log: log}
	if infos, err := manager.List(); err == nil && len(infos) > 0 {
		s.defaultID = infos[0].ID
	}
	return s
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors())

	r.GET("/api/artworks/list", s.handleList)
	r.GET("/api/artworks/clusters", func(c *gin.Context) { s.handleClusters(c, s.defaultID) })
	r.GET("/api/artworks/:id/clusters", func(c *gin.Context) { s.handleClusters(c, c.Param("id")) })
	r.GET("/api/artworks/summary", func(c *gin.Context) { s.handleSummary(c, s.defaultID) })
	r.GET("/api/artworks/:id/summary", func(c *gin.Context) { s.handleSummary(c, c.Param("id")) })
	r.POST("/api/artworks", s.handleCreate)
	r.POST("/api/artworks/:id/load", s.handleLoad)
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleList(c *gin.Context) {
	infos, err := s.manager.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleClusters(c *gin.Context, id string) {
	if id == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No artwork sets available"})
		return
	}
	ix, err := s.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	vp, err := viewportFromQuery(c, ix.Options().TileSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ix.ToGeoJSON(vp))
}

func (s *Server) handleSummary(c *gin.Context, id string) {
	if id == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No artwork sets available"})
		return
	}
	ix, err := s.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	vp, err := viewportFromQuery(c, ix.Options().TileSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cluster.CalculateCategorySummary(ix.ClusterAt(vp)))
}

func (s *Server) handleCreate(c *gin.Context) {
	var req struct {
		NumArtworks int `json:"numArtworks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.NumArtworks <= 0 || req.NumArtworks > 5_000_000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "numArtworks out of range"})
		return
	}

	// Continental scatter for demo sets.
	bounds := cluster.Bounds{MinX: -125, MinY: 25, MaxX: -67, MaxY: 49}
	info, err := s.manager.Create(req.NumArtworks, bounds, cluster.Options{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.defaultID = info.ID
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleLoad(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.manager.Get(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.defaultID = id
	c.JSON(http.StatusOK, gin.H{"message": "Artwork set loaded", "id": id})
}

// viewportFromQuery converts the map client's bounds+zoom query into a
// clustering viewport: center is the bounds midpoint and the pixel size
// is the projected span at the requested zoom.
func viewportFromQuery(c *gin.Context, tileSize int) (viewport.Viewport, error) {
	zoom, err := strconv.ParseFloat(c.Query("zoom"), 64)
	if err != nil {
		return viewport.Viewport{}, errInvalidParam("zoom")
	}
	north, err := strconv.ParseFloat(c.Query("north"), 64)
	if err != nil {
		return viewport.Viewport{}, errInvalidParam("north")
	}
	south, err := strconv.ParseFloat(c.Query("south"), 64)
	if err != nil {
		return viewport.Viewport{}, errInvalidParam("south")
	}
	east, err := strconv.ParseFloat(c.Query("east"), 64)
	if err != nil {
		return viewport.Viewport{}, errInvalidParam("east")
	}
	west, err := strconv.ParseFloat(c.Query("west"), 64)
	if err != nil {
		return viewport.Viewport{}, errInvalidParam("west")
	}

	scale := float64(tileSize) * math.Exp2(zoom)
	x0, y0 := cluster.Project(west, north)
	x1, y1 := cluster.Project(east, south)

	return viewport.Viewport{
		Longitude: (west + east) / 2,
		Latitude:  (north + south) / 2,
		Zoom:      zoom,
		Width:     int(math.Abs(x1-x0) * scale),
		Height:    int(math.Abs(y1-y0) * scale),
	}, nil
}

func errInvalidParam(name string) error {
	return fmt.Errorf("invalid %s parameter", name)
}
