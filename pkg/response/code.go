package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists       = 10001
	ErrUserNotFound     = 10002
	ErrAuthFailed       = 10003
	ErrTokenInvalid     = 10004
	ErrNoPermission     = 10005
	ErrPasswordMismatch = 10006

	// 内容模块错误 200xx
	ErrArticleNotFound     = 20001
	ErrCategoryNotFound    = 20002
	ErrSubCategoryNotFound = 20003
	ErrTagNotFound         = 20004
	ErrSlugConflict        = 20005
	ErrResourceInUse       = 20006

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrUploadFailed    = 50004
)
