package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/gin-gonic/gin"
)

// ProblemHandler serves /api/problems.
type ProblemHandler struct {
	problems *problem.Service
	log      *logger.Logger
}

func NewProblemHandler(problems *problem.Service, log *logger.Logger) *ProblemHandler {
	return &ProblemHandler{problems: problems, log: log}
}

type problemIDRequest struct {
	ProblemID string `json:"problem_id"`
}

// GET /api/problems
func (h *ProblemHandler) List(c *gin.Context) {
	f := problemFilter(c)
	var err error
	if f.Annotated, err = queryBool(c, "annotated"); err != nil {
		respondError(c, h.log, err)
		return
	}
	if f.Discarded, err = queryBool(c, "discarded"); err != nil {
		respondError(c, h.log, err)
		return
	}
	items, err := h.problems.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondList(c, items)
}

// GET /api/problems/random
func (h *ProblemHandler) Random(c *gin.Context) {
	p, err := h.problems.RandomEligible(c.Request.Context(), problemFilter(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}

// GET /api/problems/:id
func (h *ProblemHandler) Get(c *gin.Context) {
	p, err := h.problems.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}

// POST /api/problems
func (h *ProblemHandler) Create(c *gin.Context) {
	var req problem.Problem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	p, err := h.problems.Create(c.Request.Context(), problem.Problem{
		ID:         strings.TrimSpace(req.ID),
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Text:       req.Text,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, p)
}

// PUT /api/problems/:id
func (h *ProblemHandler) Update(c *gin.Context) {
	var patch problem.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	p, err := h.problems.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}

// POST /api/problems/discard
func (h *ProblemHandler) DiscardByBody(c *gin.Context) {
	var req problemIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errBadJSON)
		return
	}
	h.discard(c, req.ProblemID)
}

// PUT /api/problems/:id/discard
func (h *ProblemHandler) Discard(c *gin.Context) {
	h.discard(c, c.Param("id"))
}

func (h *ProblemHandler) discard(c *gin.Context, id string) {
	if strings.TrimSpace(id) == "" {
		respondError(c, h.log, apperr.Invalid("problem_id", "is required"))
		return
	}
	p, err := h.problems.Discard(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, p, "Problem discarded")
}

func problemFilter(c *gin.Context) problem.Filter {
	return problem.Filter{
		Category:   problem.Category(strings.TrimSpace(c.Query("category"))),
		Difficulty: problem.Difficulty(strings.TrimSpace(c.Query("difficulty"))),
	}
}

// queryBool reads an optional boolean query parameter. Absent means nil.
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid(name, "must be true or false")
	}
	return &v, nil
}
