package utils

// Pagination 分页请求参数，Limit 为 0 时返回全部
type Pagination struct {
	Page  int    `json:"page" form:"page"`
	Limit int    `json:"limit" form:"limit"`
	Sort  string `json:"sort" form:"sort"`
}

// PageResult 分页响应结果
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// GetPageOffset 计算分页偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	if p.Limit <= 0 {
		p.Page = 1
		p.Limit = 0
		return 0, 0
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return (p.Page - 1) * p.Limit, p.Limit
}

// OrderBy 将 sort 参数转换为排序语句，只允许 createdAt 字段
// "-createdAt" 为倒序，其余情况按创建时间正序
func (p *Pagination) OrderBy() string {
	if p.Sort == "-createdAt" {
		return "created_at desc, id"
	}
	return "created_at asc, id"
}
