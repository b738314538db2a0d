package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"nclex_prep_backend/internal/service"
	"nclex_prep_backend/internal/util"
)

type AttemptController struct {
	attemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

// StartAttempt godoc
// @Summary Start a test attempt
// @Description Opens a new attempt with a fixed question set. Only one attempt may be open per question bank.
// @Tags attempts
// @Accept json
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Param request body service.StartAttemptRequest true "Attempt parameters"
// @Success 201 {object} util.Response{data=model.TestAttempt}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/attempts/start [post]
func (ctl *AttemptController) StartAttempt(c *gin.Context) {
	user := util.GetUserFromContext(c)
	if user == nil {
		util.Unauthorized(c)
		return
	}
	qbankID := util.MustParseUint(c.Param("qbankId"))
	if qbankID == 0 {
		util.BadRequest(c, "invalid question bank id")
		return
	}

	var req service.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	attempt, err := ctl.attemptService.StartAttempt(user.UserID, qbankID, req)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Created(c, attempt)
}

// SubmitAnswer godoc
// @Summary Submit one answer
// @Description Grades a single answer within the open attempt. With no open attempt a tutor-mode attempt is created implicitly and the feedback includes the answer key.
// @Tags attempts
// @Accept json
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Param questionId path int true "Question ID"
// @Param request body service.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} util.Response{data=service.SubmitAnswerResponse}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/questions/{questionId}/answer [post]
func (ctl *AttemptController) SubmitAnswer(c *gin.Context) {
	user := util.GetUserFromContext(c)
	if user == nil {
		util.Unauthorized(c)
		return
	}
	qbankID := util.MustParseUint(c.Param("qbankId"))
	questionID := util.MustParseUint(c.Param("questionId"))
	if qbankID == 0 || questionID == 0 {
		util.BadRequest(c, "invalid id")
		return
	}

	var req service.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	resp, err := ctl.attemptService.SubmitOneAnswer(user.UserID, qbankID, questionID, req.Answer)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, resp)
}

// FinalizeAttempt godoc
// @Summary Finalize the open attempt
// @Description Grades the full answer set, completes the attempt, updates the performance rollups and recomputes readiness.
// @Tags attempts
// @Accept json
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Param request body service.FinalizeAttemptRequest true "Answers keyed by question id"
// @Success 200 {object} util.Response{data=service.FinalizeAttemptResponse}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/attempts/finalize [post]
func (ctl *AttemptController) FinalizeAttempt(c *gin.Context) {
	user := util.GetUserFromContext(c)
	if user == nil {
		util.Unauthorized(c)
		return
	}
	qbankID := util.MustParseUint(c.Param("qbankId"))
	if qbankID == 0 {
		util.BadRequest(c, "invalid question bank id")
		return
	}

	var req service.FinalizeAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	resp, err := ctl.attemptService.FinalizeAttempt(user.UserID, qbankID, req)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, resp)
}

// ListAttempts godoc
// @Summary List completed attempts
// @Tags attempts
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/attempts [get]
func (ctl *AttemptController) ListAttempts(c *gin.Context) {
	user := util.GetUserFromContext(c)
	if user == nil {
		util.Unauthorized(c)
		return
	}
	qbankID := util.MustParseUint(c.Param("qbankId"))
	if qbankID == 0 {
		util.BadRequest(c, "invalid question bank id")
		return
	}

	page := int(util.MustParseUint(c.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	attempts, total, err := ctl.attemptService.ListAttempts(user.UserID, qbankID, page, limit)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// respondAttemptError maps domain sentinels onto HTTP statuses.
func respondAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNotEnrolled), errors.Is(err, util.ErrEnrollmentSuspended):
		util.Forbidden(c)
	case errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrQuestionBankNotFound),
		errors.Is(err, util.ErrAttemptNotFound):
		util.Error(c, 404, err.Error())
	case errors.Is(err, util.ErrAttemptAlreadyCompleted), errors.Is(err, util.ErrAttemptAlreadyOpen):
		util.Conflict(c, err.Error())
	case errors.Is(err, util.ErrEmptyAnswer),
		errors.Is(err, util.ErrEmptyAnswerSet),
		errors.Is(err, util.ErrQuestionNotInAttempt):
		util.BadRequest(c, err.Error())
	default:
		util.LogInternalError(c, err)
	}
}
