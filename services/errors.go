package services

import "errors"

var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden access")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUpstream          = errors.New("payment processor unavailable")
)

// errNoMatch 在事务内表示目标文档不存在，外层转换为零影响结果
var errNoMatch = errors.New("no matching document")

// WriteResult 写操作影响的文档数，id 不存在时全部为 0 而不是报错
type WriteResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	DeletedCount  int64 `json:"deletedCount,omitempty"`
}
