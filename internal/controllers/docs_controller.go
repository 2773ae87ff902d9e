package controllers

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

type DocsController struct {
	document map[string]any
}

// NewDocsController decodes the embedded OpenAPI document once at startup.
func NewDocsController() (*DocsController, error) {
	var document map[string]any
	if err := yaml.Unmarshal(openAPISpec, &document); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	return &DocsController{document: document}, nil
}

// OpenAPI handles GET /docs
func (dc *DocsController) OpenAPI(c *gin.Context) {
	c.JSON(http.StatusOK, dc.document)
}

// RedirectToDocs handles GET /
func (dc *DocsController) RedirectToDocs(c *gin.Context) {
	c.Redirect(http.StatusFound, "/docs")
}
