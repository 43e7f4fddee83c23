// Package executor 定义查询执行器边界：执行参数化 SQL 并返回结果游标。
// 执行器由调用方持有和关闭，本包不管理连接生命周期。
package executor

import (
	"context"

	"github.com/pkg/errors"
)

var ErrOneResultExpected = errors.New("exactly one result expected")

// Cursor 一次执行的结果游标
type Cursor interface {
	// LastInsertID 返回后端报告的自增主键，后端不支持时为空字符串
	LastInsertID() string
	// AffectedRows 返回受影响的行数
	AffectedRows() int64
	// FetchOne 返回结果中的唯一一行；无结果时返回 (nil, nil)，
	// 多于一行时返回 ErrOneResultExpected
	FetchOne() (map[string]any, error)
	// FetchAll 按结果顺序返回全部行，无结果时返回空切片
	FetchAll() ([]map[string]any, error)
}

// Executor 查询执行器接口
type Executor interface {
	Execute(ctx context.Context, sqlStr string, args []any) (Cursor, error)
}

// ReturningSupport 可选能力：后端支持 INSERT ... RETURNING 语法
type ReturningSupport interface {
	SupportsReturning() bool
}

// BinaryUnescaper 可选能力：解码后端返回的转义二进制值
type BinaryUnescaper interface {
	UnescapeBinary(value any) any
}

// SchemaIntrospector 可选能力：返回表的列名到声明类型的映射
type SchemaIntrospector interface {
	DescribeTable(ctx context.Context, table string) (map[string]string, error)
}
