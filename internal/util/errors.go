package util

import "errors"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrInvalidCredential = errors.New("邮箱或密码错误")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrVocabNotFound     = errors.New("vocab item not found")
	ErrProductNotFound   = errors.New("placement product not found")
	ErrResultNotFound    = errors.New("placement result not found")
)
