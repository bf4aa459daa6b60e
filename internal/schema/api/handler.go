package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/aevon-lab/aevon-search/internal/core/errors"
	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// Handler handles index model HTTP requests.
type Handler struct {
	catalog *schema.Catalog
}

// NewHandler creates a new index model API handler.
func NewHandler(catalog *schema.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// IndexResponse is one entry of GET /v1/indexes.
// For YAML models, Definition contains parsed JSON-compatible data.
type IndexResponse struct {
	Index       string      `json:"index"`
	Version     int         `json:"version"`
	Format      string      `json:"format"`
	State       string      `json:"state"`
	Fingerprint string      `json:"fingerprint"`
	Definition  interface{} `json:"definition"`
}

// ModelResponse is the body of GET /v1/indexes/:index/:version.
type ModelResponse struct {
	ID          string             `json:"id"`
	Format      string             `json:"format"`
	State       string             `json:"state"`
	Fingerprint string             `json:"fingerprint"`
	CreatedAt   string             `json:"created_at"`
	Model       *schema.IndexModel `json:"model"`
}

// HandleList handles GET /v1/indexes.
func (h *Handler) HandleList(c *gin.Context) {
	index := c.Query("index")

	schemas, err := h.catalog.Registry().List(c.Request.Context(), index)
	if err != nil {
		slog.Error("Index model list error", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{ErrorType: httperr.HttpInternalError, Message: "Failed to list index models"})
		return
	}

	responses := make([]*IndexResponse, len(schemas))
	for i, s := range schemas {
		resp, convErr := toIndexResponse(s)
		if convErr != nil {
			slog.Error("Index model conversion error", "error", convErr, "index", s.Index, "version", s.Version)
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{ErrorType: httperr.HttpInternalError, Message: "Failed to convert model definition"})
			return
		}
		responses[i] = resp
	}

	c.JSON(http.StatusOK, responses)
}

// HandleGet handles GET /v1/indexes/:index/:version. Version "latest" or 0
// resolves the highest active version.
func (h *Handler) HandleGet(c *gin.Context) {
	index := c.Param("index")
	version, err := parseVersion(c.Param("version"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{ErrorType: httperr.HttpInvalidVersionError, Message: "version must be an integer or 'latest'"})
		return
	}

	ctx := c.Request.Context()
	s, err := h.catalog.Registry().Get(ctx, index, version)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	model, err := h.catalog.Model(ctx, index, s.Version)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, &ModelResponse{
		ID:          s.ID,
		Format:      string(s.Format),
		State:       string(s.State),
		Fingerprint: s.Fingerprint,
		CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Model:       model,
	})
}

func parseVersion(raw string) (int, error) {
	if raw == "latest" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid version")
	}
	return v, nil
}

func writeLookupError(c *gin.Context, err error) {
	var detailer schema.ValidationDetailer
	switch {
	case errors.Is(err, schema.ErrNotFound), errors.Is(err, schema.ErrDeprecated):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{ErrorType: httperr.HttpIndexNotFoundError, Message: err.Error()})
	case errors.As(err, &detailer):
		c.JSON(http.StatusUnprocessableEntity, httperr.ErrorResponse{
			ErrorType: httperr.HttpModelDefinitionError,
			Message:   err.Error(),
			Details:   detailer.Details(),
		})
	default:
		slog.Error("Index model lookup error", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{ErrorType: httperr.HttpInternalError, Message: err.Error()})
	}
}

func toIndexResponse(s *schema.Schema) (*IndexResponse, error) {
	resp := &IndexResponse{
		Index:       s.Index,
		Version:     s.Version,
		Format:      string(s.Format),
		State:       string(s.State),
		Fingerprint: s.Fingerprint,
	}

	if s.Format == schema.FormatYaml {
		var parsed map[string]interface{}
		if err := yaml.Unmarshal(s.Definition, &parsed); err != nil {
			return nil, err
		}
		resp.Definition = parsed
		return resp, nil
	}

	resp.Definition = map[string]interface{}{
		"raw": string(s.Definition),
	}
	return resp, nil
}
