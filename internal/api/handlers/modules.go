package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/store"
	"github.com/baseplate/backoffice/internal/core/validation"
	"github.com/baseplate/backoffice/internal/logging"
)

type ModuleHandler struct {
	registry *registry.Registry
	modules  map[string]Module
	log      *logging.Logger
}

func NewModuleHandler(reg *registry.Registry, mods ...Module) *ModuleHandler {
	h := &ModuleHandler{
		registry: reg,
		modules:  make(map[string]Module, len(mods)),
		log:      logging.For("http.modules"),
	}
	for _, m := range mods {
		h.modules[m.Name()] = m
	}
	return h
}

// module resolves the :module path parameter, answering 404 when it is not
// registered.
func (h *ModuleHandler) module(c *gin.Context) (Module, bool) {
	name := c.Param("module")
	if m, ok := h.modules[name]; ok {
		return m, true
	}
	_, err := h.registry.Get(name)
	if err == nil {
		err = &registry.UnknownModuleError{Module: name}
	}
	h.respondError(c, err)
	return nil, false
}

func (h *ModuleHandler) ListModules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modules": h.registry.Configs()})
}

func (h *ModuleHandler) GetModule(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m.Config())
}

// ListRecords serves the fetch contract: one page of records for the query
// given as URL parameters.
func (h *ModuleHandler) ListRecords(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}

	d, err := query.ParseValues(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.Module = m.Name()

	page, err := m.FetchPage(c.Request.Context(), d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Query runs a JSON descriptor and answers with the page, facets and
// suggestions.
func (h *ModuleHandler) Query(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}

	var d query.Descriptor
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if d.Module != "" && d.Module != m.Name() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "descriptor module does not match path"})
		return
	}
	d.Module = m.Name()

	res, err := m.Query(c.Request.Context(), d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ModuleHandler) Suggestions(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": query.Suggest(m.Config(), c.Query("search"))})
}

func (h *ModuleHandler) Stats(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m.Stats())
}

// AllStats answers with every module's summary keyed by module name.
func (h *ModuleHandler) AllStats(c *gin.Context) {
	out := make(map[string]any, len(h.modules))
	for name, m := range h.modules {
		out[name] = m.Stats()
	}
	c.JSON(http.StatusOK, out)
}

func (h *ModuleHandler) Groups(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	groups, err := m.Groups(c.Param("field"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *ModuleHandler) GetRecord(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	rec, err := m.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ModuleHandler) CreateRecord(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := m.Create(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *ModuleHandler) UpdateRecord(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := m.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ModuleHandler) DeleteRecord(c *gin.Context) {
	m, ok := h.module(c)
	if !ok {
		return
	}
	if err := m.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ModuleHandler) respondError(c *gin.Context, err error) {
	var fetchErr *store.FetchError
	switch {
	case validation.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validation.GetValidationErrors(err)})
	case errors.Is(err, registry.ErrUnknownModule),
		errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, record.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrRecordExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, record.ErrImmutable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
