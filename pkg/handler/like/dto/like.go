package dto

// ToggleRequest 点赞 / 取消点赞请求体
type ToggleRequest struct {
	Action string `json:"action"`
}
