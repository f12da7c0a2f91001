package tzdata

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed      = errors.New("tzdata: malformed dataset")
	ErrVersionMissing = errors.New("tzdata: dataset version missing")
)

// 文档注释：数据集错误
// 约束：Kind 仅取 ErrMalformed / ErrVersionMissing，调用方通过 errors.Is 区分；Offset 为出错处的字节偏移。
type DatasetError struct {
	Kind   error
	Offset int
	Reason string
}

func (e *DatasetError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Reason, e.Offset)
}

func (e *DatasetError) Unwrap() error { return e.Kind }

func malformed(off int, format string, args ...any) *DatasetError {
	return &DatasetError{Kind: ErrMalformed, Offset: off, Reason: fmt.Sprintf(format, args...)}
}
