package httpapi

import (
	"net/http"
	"strings"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/gin-gonic/gin"
)

// AnnotationHandler serves /api/annotations.
type AnnotationHandler struct {
	annotations *annotation.Service
	log         *logger.Logger
}

func NewAnnotationHandler(annotations *annotation.Service, log *logger.Logger) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations, log: log}
}

type finalizeRequest struct {
	Outcome string `json:"outcome"`
}

// GET /api/annotations
func (h *AnnotationHandler) List(c *gin.Context) {
	f := annotation.Filter{ProblemID: strings.TrimSpace(c.Query("problem_id"))}
	var err error
	if f.Complete, err = queryBool(c, "complete"); err != nil {
		respondError(c, h.log, err)
		return
	}
	items, err := h.annotations.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, items)
}

// GET /api/annotations/:id
func (h *AnnotationHandler) Get(c *gin.Context) {
	a, err := h.annotations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, a)
}

// POST /api/annotations/start
func (h *AnnotationHandler) Start(c *gin.Context) {
	var req problemIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	a, err := h.annotations.Start(c.Request.Context(), strings.TrimSpace(req.ProblemID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, a)
}

// POST /api/annotations/:id/guidance
func (h *AnnotationHandler) SubmitGuidance(c *gin.Context) {
	var g annotation.Guidance
	if err := c.ShouldBindJSON(&g); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	a, err := h.annotations.SubmitGuidance(c.Request.Context(), c.Param("id"), g)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, a)
}

// POST /api/annotations/:id/mark-correct
func (h *AnnotationHandler) Finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	a, err := h.annotations.Finalize(c.Request.Context(), c.Param("id"), annotation.Outcome(req.Outcome))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, a, "Annotation completed successfully")
}

// POST /api/annotations/discard
func (h *AnnotationHandler) Discard(c *gin.Context) {
	var req problemIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	p, err := h.annotations.Discard(c.Request.Context(), strings.TrimSpace(req.ProblemID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, p, "Problem discarded")
}

// GET /api/taxonomy
func Taxonomy(c *gin.Context) {
	respondOK(c, http.StatusOK, annotation.GetTaxonomy())
}
