package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlacementController struct {
	PlacementService *service.PlacementService
}

func NewPlacementController(placementService *service.PlacementService) *PlacementController {
	return &PlacementController{PlacementService: placementService}
}

// StartSessionRequest 启动测评请求
type StartSessionRequest struct {
	Product string `json:"product"`
}

// StartSession godoc
// @Summary 启动定级测评
// @Description 为当前用户创建一次自适应定级测评，返回第一阶段题目和倒计时
// @Tags 定级测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartSessionRequest true "测评产品，留空使用默认产品"
// @Success 201 {object} util.Response{data=placement.PhaseView}
// @Failure 404 {object} util.Response "测评产品不存在"
// @Failure 409 {object} util.Response "已有进行中的测评"
// @Failure 503 {object} util.Response "题库题目不足"
// @Router /api/placement/sessions [post]
func (c *PlacementController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.PlacementService.StartSession(ctx.Request.Context(), claims.UserID, req.Product)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Created(ctx, view)
}

// Snapshot godoc
// @Summary 查询测评当前状态
// @Description 返回进行中测评的当前阶段、题目和剩余秒数
// @Tags 定级测评
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=placement.PhaseView}
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/placement/sessions/{id} [get]
func (c *PlacementController) Snapshot(ctx *gin.Context) {
	sessionID, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	view, err := c.PlacementService.Snapshot(ctx.Request.Context(), sessionID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// SubmitAnswerRequest 作答请求，answer 的形状由题型决定
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// SubmitAnswer godoc
// @Summary 提交单题作答
// @Description 按批次内下标记录一题作答，可重复提交覆盖，阶段结束前不判分
// @Tags 定级测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   index path int true "批次内题目下标"
// @Param   body body SubmitAnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "下标越界"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/placement/sessions/{id}/answers/{index} [put]
func (c *PlacementController) SubmitAnswer(ctx *gin.Context) {
	sessionID, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "题目下标必须是整数")
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.PlacementService.SubmitAnswer(ctx.Request.Context(), sessionID, index, req.Answer); err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// SubmitPhaseRequest 阶段交卷请求。phase 回显调用方认为的当前阶段，
// 与服务端不一致说明倒计时已先结清。
type SubmitPhaseRequest struct {
	Phase string `json:"phase"`
}

// SubmitPhase godoc
// @Summary 阶段交卷
// @Description 结清当前阶段：按分支表进入下一阶段或产出终局结果
// @Tags 定级测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   body body SubmitPhaseRequest true "阶段回显"
// @Success 200 {object} util.Response{data=placement.PhaseOutcome}
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已结束或阶段不一致"
// @Failure 503 {object} util.Response "下一阶段题目不足"
// @Router /api/placement/sessions/{id}/submit [post]
func (c *PlacementController) SubmitPhase(ctx *gin.Context) {
	sessionID, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	var req SubmitPhaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.PlacementService.SubmitPhase(ctx.Request.Context(), sessionID, placement.Phase(req.Phase))
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, outcome)
}

// Abandon godoc
// @Summary 放弃测评
// @Description 终止进行中的测评，不产出结果也不发放奖励
// @Tags 定级测评
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/placement/sessions/{id} [delete]
func (c *PlacementController) Abandon(ctx *gin.Context) {
	sessionID, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	if err := c.PlacementService.Abandon(sessionID); err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// SessionResult godoc
// @Summary 查询测评结果
// @Description 返回一次已完成测评的终局结果
// @Tags 定级测评
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=placement.Result}
// @Failure 404 {object} util.Response "结果不存在"
// @Router /api/placement/sessions/{id}/result [get]
func (c *PlacementController) SessionResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.PlacementService.SessionResult(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	if res.UserID != claims.UserID {
		util.Forbidden(ctx)
		return
	}

	util.Success(ctx, res)
}

// LatestResult godoc
// @Summary 查询最近一次定级结果
// @Tags 定级测评
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=placement.Result}
// @Failure 404 {object} util.Response "暂无定级结果"
// @Router /api/placement/result [get]
func (c *PlacementController) LatestResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.PlacementService.LatestResult(ctx.Request.Context(), claims.UserID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// Products godoc
// @Summary 测评产品列表
// @Tags 定级测评
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/placement/products [get]
func (c *PlacementController) Products(ctx *gin.Context) {
	util.Success(ctx, gin.H{"products": c.PlacementService.ProductNames()})
}

// ownedSession checks the path session against the caller's active session.
func (c *PlacementController) ownedSession(ctx *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return "", false
	}
	sessionID := ctx.Param("id")
	active, ok := c.PlacementService.Engine.ActiveSessionID(claims.UserID)
	if !ok || active != sessionID {
		util.NotFound(ctx)
		return "", false
	}
	return sessionID, true
}

func (c *PlacementController) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, placement.ErrSessionNotFound), errors.Is(err, util.ErrProductNotFound), errors.Is(err, util.ErrResultNotFound):
		util.NotFound(ctx)
	case errors.Is(err, placement.ErrActiveSession):
		util.Conflict(ctx, "已有进行中的测评")
	case errors.Is(err, placement.ErrSessionCompleted):
		util.Conflict(ctx, "测评已结束")
	case errors.Is(err, placement.ErrIndexOutOfRange):
		util.BadRequest(ctx, "题目下标越界")
	case errors.Is(err, placement.ErrEmptyBatch):
		util.Error(ctx, http.StatusServiceUnavailable, "题库题目不足")
	default:
		util.LogInternalError(ctx, err)
	}
}
