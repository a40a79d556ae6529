package rules

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rulebook/internal/logger"
	"rulebook/pkg/errors"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules")
		{
			rules.POST("", h.CreateRule)
			rules.GET("", h.ListRules)
			rules.POST("/combine", h.CombineRules)
			rules.POST("/:id/evaluate", h.EvaluateRule)
		}
	}
}

// CreateRule godoc
// @Summary      Create a new rule
// @Description  Parse and store a rule string, echoing back the parsed tree
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        rule  body      CreateRuleRequest  true  "Rule definition"
// @Success      201   {object}  CreateRuleResponse
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	resp, err := h.Service.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListRules godoc
// @Summary      List all rules
// @Description  Get all stored rules in insertion order
// @Tags         rules
// @Accept       json
// @Produce      json
// @Success      200  {object}  ListRulesResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	resp, err := h.Service.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EvaluateRule godoc
// @Summary      Evaluate a rule against a data record
// @Description  Fetch a stored rule by id and evaluate it against the given data
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Rule ID"
// @Param        data  body      EvaluateRuleRequest  true  "Data record"
// @Success      200   {object}  EvaluateRuleResponse
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/{id}/evaluate [post]
func (h *Handler) EvaluateRule(c *gin.Context) {
	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithCause(err).WithDetail("message", "rule id must be an integer"),
		))
		return
	}

	var req EvaluateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	resp, err := h.Service.EvaluateRule(c.Request.Context(), ruleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CombineRules godoc
// @Summary      Combine stored rules into one rule string
// @Description  Join the referenced rules with AND/OR; missing ids are skipped, the result is not persisted
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        request  body      CombineRulesRequest  true  "Rule ids and connective"
// @Success      200      {object}  CombineRulesResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /rules/combine [post]
func (h *Handler) CombineRules(c *gin.Context) {
	var req CombineRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	resp, err := h.Service.CombineRules(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
