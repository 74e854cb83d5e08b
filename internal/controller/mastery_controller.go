package controller

import (
	"encoding/json"
	"errors"
	"strconv"

	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MasteryController struct {
	MasteryService *service.MasteryService
}

func NewMasteryController(masteryService *service.MasteryService) *MasteryController {
	return &MasteryController{MasteryService: masteryService}
}

// Quiz godoc
// @Summary 获取词汇掌握度小测验
// @Description 返回某个词汇条目的全部验证题目，不含答案
// @Tags 词汇掌握度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "词汇条目ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "词汇不存在"
// @Failure 409 {object} util.Response "该词汇没有配置小测验"
// @Router /api/vocab/{id}/quiz [get]
func (c *MasteryController) Quiz(ctx *gin.Context) {
	itemID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "词汇ID必须是整数")
		return
	}

	item, quiz, err := c.MasteryService.Quiz(ctx.Request.Context(), uint(itemID))
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"item": item, "questions": quiz})
}

// ValidateRequest 掌握度验证请求，answers 按题目顺序排列
type ValidateRequest struct {
	Answers []json.RawMessage `json:"answers" binding:"required"`
}

// Validate godoc
// @Summary 提交掌握度小测验
// @Description 全部答对判定为已掌握，任一错误保持学习中；无题目的词汇不能判定掌握
// @Tags 词汇掌握度
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "词汇条目ID"
// @Param   body body ValidateRequest true "按序作答"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "词汇不存在"
// @Failure 409 {object} util.Response "该词汇没有配置小测验"
// @Router /api/vocab/{id}/quiz [post]
func (c *MasteryController) Validate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	itemID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "词汇ID必须是整数")
		return
	}

	var req ValidateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, progress, err := c.MasteryService.Validate(ctx.Request.Context(), claims.UserID, uint(itemID), req.Answers)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"outcome": outcome, "progress": progress})
}

func (c *MasteryController) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrVocabNotFound):
		util.NotFound(ctx)
	case errors.Is(err, placement.ErrNoMasteryQuiz):
		util.Conflict(ctx, "该词汇没有配置小测验")
	default:
		util.LogInternalError(ctx, err)
	}
}
