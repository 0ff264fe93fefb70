package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/runner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	m, err := runner.NewManager(t.TempDir(), 4, nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	bounds := cluster.Bounds{MinX: -123.2, MinY: 49.2, MaxX: -123.0, MaxY: 49.4}
	info, err := m.Create(200, bounds, cluster.Options{})
	require.NoError(t, err)

	return NewServer(m, nil), info.ID
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

const clusterQuery = "zoom=12&north=49.4&south=49.2&east=-123.0&west=-123.2"

func TestListArtworkSets(t *testing.T) {
	s, id := newTestServer(t)

	w := do(s, http.MethodGet, "/api/artworks/list", "")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []runner.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
}

func TestClustersReturnsGeoJSON(t *testing.T) {
	s, id := newTestServer(t)

	for _, target := range []string{
		"/api/artworks/clusters?" + clusterQuery, // default set
		"/api/artworks/" + id + "/clusters?" + clusterQuery,
	} {
		w := do(s, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code, target)

		var fc cluster.FeatureCollection
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
		assert.Equal(t, "FeatureCollection", fc.Type)
		assert.NotEmpty(t, fc.Features)
	}
}

func TestClustersRejectsBadQuery(t *testing.T) {
	s, id := newTestServer(t)

	w := do(s, http.MethodGet, "/api/artworks/"+id+"/clusters?zoom=12&north=49.4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodGet, "/api/artworks/"+id+"/clusters?"+strings.Replace(clusterQuery, "zoom=12", "zoom=abc", 1), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClustersUnknownSet(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/api/artworks/deadbeef/clusters?"+clusterQuery, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummary(t *testing.T) {
	s, id := newTestServer(t)

	w := do(s, http.MethodGet, "/api/artworks/"+id+"/summary?"+clusterQuery, "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary cluster.CategorySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 200, summary.TotalArtworks)
}

func TestCreateArtworkSet(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/api/artworks", `{"numArtworks": 50}`)
	require.Equal(t, http.StatusOK, w.Code)

	var info runner.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 50, info.NumArtworks)

	w = do(s, http.MethodPost, "/api/artworks", `{"numArtworks": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/api/artworks", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadSwitchesDefault(t *testing.T) {
	s, id := newTestServer(t)

	w := do(s, http.MethodPost, "/api/artworks/"+id+"/load", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodPost, "/api/artworks/deadbeef/load", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodOptions, "/api/artworks/list", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
