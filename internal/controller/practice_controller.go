package controller

import (
	"encoding/json"
	"errors"
	"strconv"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// PracticeSubmitRequest 练习作答请求
type PracticeSubmitRequest struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// Submit godoc
// @Summary 提交练习作答
// @Description 练习模式即时判分，与定级测评的阶段末判分不同
// @Tags 练习
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目ID"
// @Param   body body PracticeSubmitRequest true "作答内容"
// @Success 200 {object} util.Response{data=service.PracticeResult}
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/practice/questions/{id}/submit [post]
func (c *PracticeController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	questionID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "题目ID必须是整数")
		return
	}

	var req PracticeSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PracticeService.Submit(ctx.Request.Context(), claims.UserID, uint(questionID), req.Answer)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// Stats godoc
// @Summary 练习统计
// @Description 返回当前用户的累计练习题数和正确数
// @Tags 练习
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/practice/stats [get]
func (c *PracticeController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	total, correct, err := c.PracticeService.Stats(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"total": total, "correct": correct})
}
