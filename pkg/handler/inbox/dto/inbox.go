package dto

// ReadStatusQuery GET /inbox/:chatId/read 的查询参数
type ReadStatusQuery struct {
	LatestMessageTime string `form:"latestMessageTime" binding:"omitempty,max=64"`
}

// ReadStatusResponse 已读状态
type ReadStatusResponse struct {
	HasRead      bool   `json:"hasRead"`
	LastReadTime string `json:"lastReadTime,omitempty"`
}

// MarkReadResponse 标记已读结果
type MarkReadResponse struct {
	HasRead      bool   `json:"hasRead"`
	ChatID       string `json:"chatId"`
	LastReadTime string `json:"lastReadTime"`
}

// UnreadCountResponse 未读会话数
type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}
