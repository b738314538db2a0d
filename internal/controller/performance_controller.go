package controller

import (
	"github.com/gin-gonic/gin"

	"nclex_prep_backend/internal/service"
	"nclex_prep_backend/internal/util"
)

type PerformanceController struct {
	performanceService *service.PerformanceService
}

func NewPerformanceController(performanceService *service.PerformanceService) *PerformanceController {
	return &PerformanceController{performanceService: performanceService}
}

// GetPerformance godoc
// @Summary Get performance rollups
// @Description Returns the enrollment counters plus per-subject and per-category breakdowns.
// @Tags performance
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Success 200 {object} util.Response{data=service.PerformanceOverview}
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/performance [get]
func (ctl *PerformanceController) GetPerformance(c *gin.Context) {
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

	overview, err := ctl.performanceService.GetOverview(user.UserID, qbankID)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, overview)
}

// GetStudentPerformance godoc
// @Summary Get a student's performance rollups
// @Description Instructor view of another student's enrollment counters and breakdowns.
// @Tags performance
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Param userId path int true "Student user ID"
// @Success 200 {object} util.Response{data=service.PerformanceOverview}
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/students/{userId}/performance [get]
func (ctl *PerformanceController) GetStudentPerformance(c *gin.Context) {
	qbankID := util.MustParseUint(c.Param("qbankId"))
	userID := util.MustParseUint(c.Param("userId"))
	if qbankID == 0 || userID == 0 {
		util.BadRequest(c, "invalid id")
		return
	}

	overview, err := ctl.performanceService.GetOverview(userID, qbankID)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, overview)
}

// GetReadiness godoc
// @Summary Get exam readiness
// @Description Returns the composite readiness score, its level band and the weighted components, computed from current rollup state.
// @Tags performance
// @Produce json
// @Param qbankId path int true "Question bank ID"
// @Success 200 {object} util.Response{data=service.ReadinessResult}
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /qbanks/{qbankId}/readiness [get]
func (ctl *PerformanceController) GetReadiness(c *gin.Context) {
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

	result, err := ctl.performanceService.GetReadiness(user.UserID, qbankID)
	if err != nil {
		respondAttemptError(c, err)
		return
	}
	util.Success(c, result)
}
