package api

import (
	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/gin-gonic/gin"
)

// Service provides the index model API.
type Service struct {
	catalog *schema.Catalog
}

// NewService creates a new index model API service.
func NewService(catalog *schema.Catalog) *Service {
	return &Service{catalog: catalog}
}

// RegisterRoutes registers the index model API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	handler := NewHandler(s.catalog)

	indexes := r.Group("/v1/indexes")
	{
		indexes.GET("", handler.HandleList)
		indexes.GET("/:index/:version", handler.HandleGet)
	}
}
