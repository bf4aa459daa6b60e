package projection

import (
	"errors"
	"log/slog"
	"net/http"

	coreagg "github.com/aevon-lab/aevon-search/internal/core/aggregation"
	httperr "github.com/aevon-lab/aevon-search/internal/core/errors"
	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/aggregate", s.HandleAggregate)
	r.GET("/v1/aggregate/pages/:token", s.HandleNextPage)
	r.DELETE("/v1/aggregate/pages/:token", s.HandleClosePages)

	r.POST("/v1/pipelines/:name/run", s.HandleRunPipeline)
	r.GET("/v1/pipelines/:name/snapshot", s.HandleLatestSnapshot)
}

// HandleAggregate handles POST /v1/aggregate.
// With page_size > 0 the first page and a session token are returned instead of all rows.
func (s *Service) HandleAggregate(c *gin.Context) {
	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	if req.PageSize > 0 {
		resp, err := s.OpenPages(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := s.Aggregate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleNextPage handles GET /v1/aggregate/pages/:token
func (s *Service) HandleNextPage(c *gin.Context) {
	resp, err := s.NextPage(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleClosePages handles DELETE /v1/aggregate/pages/:token
func (s *Service) HandleClosePages(c *gin.Context) {
	if err := s.ClosePages(c.Request.Context(), c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleRunPipeline handles POST /v1/pipelines/:name/run
func (s *Service) HandleRunPipeline(c *gin.Context) {
	resp, err := s.RunPipeline(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleLatestSnapshot handles GET /v1/pipelines/:name/snapshot
func (s *Service) HandleLatestSnapshot(c *gin.Context) {
	resp, err := s.LatestSnapshot(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var (
		decodeErr *coreagg.DecodeError
		detailer  schema.ValidationDetailer
	)

	switch {
	case errors.Is(err, ErrInvalidQuery),
		errors.Is(err, coreagg.ErrInvalidArgument),
		errors.Is(err, coreagg.ErrInvalidState),
		errors.Is(err, schema.ErrUnknownField):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPipelineError,
			Message:   "Invalid aggregation pipeline",
			Details:   err.Error(),
		})
	case errors.Is(err, coreagg.ErrSchemaMismatch):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpSchemaMismatchError,
			Message:   "Result columns do not match the requested types",
			Details:   err.Error(),
		})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusUnprocessableEntity, httperr.ErrorResponse{
			ErrorType: httperr.HttpDecodeFailureError,
			Message:   err.Error(),
			Details:   decodeErr.Details(),
		})
	case errors.Is(err, coreagg.ErrDecodeFailure):
		c.JSON(http.StatusUnprocessableEntity, httperr.ErrorResponse{
			ErrorType: httperr.HttpDecodeFailureError,
			Message:   err.Error(),
		})
	case errors.Is(err, schema.ErrNotFound), errors.Is(err, schema.ErrDeprecated):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpIndexNotFoundError,
			Message:   err.Error(),
		})
	case errors.As(err, &detailer):
		c.JSON(http.StatusUnprocessableEntity, httperr.ErrorResponse{
			ErrorType: httperr.HttpModelDefinitionError,
			Message:   err.Error(),
			Details:   detailer.Details(),
		})
	case errors.Is(err, coreagg.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpPipelineNotFound,
			Message:   err.Error(),
		})
	case errors.Is(err, coreagg.ErrSnapshotNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpSnapshotNotFound,
			Message:   err.Error(),
		})
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpSessionNotFound,
			Message:   err.Error(),
		})
	case errors.Is(err, ErrSessionRejected):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpSessionRejected,
			Message:   "Too many open page sessions, retry later",
		})
	case errors.Is(err, coreagg.ErrTransportFailure):
		slog.Error("[Projection] Aggregation engine error", "error", err)
		c.JSON(http.StatusBadGateway, httperr.ErrorResponse{
			ErrorType: httperr.HttpEngineError,
			Message:   "Aggregation engine request failed",
			Details:   err.Error(),
		})
	default:
		slog.Error("[Projection] Query failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to run aggregation",
			Details:   err.Error(),
		})
	}
}
