package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrEmptyFieldSet = errors.New("empty field set")

// QueryOptions 查询选项
type QueryOptions struct {
	Limit     int
	Offset    int
	OrderBy   string
	OrderDesc bool
}

type QueryOption func(*QueryOptions)

func WithLimit(limit int) QueryOption {
	return func(options *QueryOptions) {
		options.Limit = limit
	}
}

func WithOffset(offset int) QueryOption {
	return func(options *QueryOptions) {
		options.Offset = offset
	}
}

func WithOrderBy(field string) QueryOption {
	return func(options *QueryOptions) {
		options.OrderBy = field
	}
}

func WithOrderDesc() QueryOption {
	return func(options *QueryOptions) {
		options.OrderDesc = true
	}
}

// BuildSelect 构建 SELECT 语句，query 为 nil 时不带 WHERE 条件
func BuildSelect(table string, query Query, opts ...QueryOption) (string, []interface{}, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	sqlStr := fmt.Sprintf("SELECT * FROM %s", table)
	var args []interface{}

	if query != nil {
		whereSQL, whereArgs, err := query.ToSQL()
		if err != nil {
			return "", nil, err
		}
		sqlStr += " WHERE " + whereSQL
		args = whereArgs
	}

	// 添加排序
	if options.OrderBy != "" {
		direction := "ASC"
		if options.OrderDesc {
			direction = "DESC"
		}
		sqlStr += fmt.Sprintf(" ORDER BY %s %s", options.OrderBy, direction)
	}

	// 添加分页
	if options.Limit > 0 {
		sqlStr += fmt.Sprintf(" LIMIT %d", options.Limit)
	}
	if options.Offset > 0 {
		sqlStr += fmt.Sprintf(" OFFSET %d", options.Offset)
	}

	return sqlStr, args, nil
}

// BuildInsert 构建 INSERT 语句，列按名称排序保证语句稳定。
// returning 不为空时追加 RETURNING 子句，供支持该语法的后端取回主键。
func BuildInsert(table string, fields map[string]interface{}, returning string) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, ErrEmptyFieldSet
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		placeholders = append(placeholders, "?")
		args = append(args, fields[col])
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))

	if returning != "" {
		sqlStr += fmt.Sprintf(" RETURNING %s", returning)
	}

	return sqlStr, args, nil
}

// BuildUpdate 构建仅覆盖变更列的 UPDATE 语句，以主键等值作为过滤条件
func BuildUpdate(table string, changes map[string]interface{}, pkColumn string, pkValue interface{}) (string, []interface{}, error) {
	if len(changes) == 0 {
		return "", nil, ErrEmptyFieldSet
	}

	columns := make([]string, 0, len(changes))
	for col := range changes {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setParts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		setParts = append(setParts, fmt.Sprintf("%s = ?", col))
		args = append(args, changes[col])
	}
	args = append(args, pkValue)

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		table,
		strings.Join(setParts, ", "),
		pkColumn)

	return sqlStr, args, nil
}

// BuildDelete 构建以主键等值过滤的 DELETE 语句
func BuildDelete(table string, pkColumn string, pkValue interface{}) (string, []interface{}, error) {
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, pkColumn)
	return sqlStr, []interface{}{pkValue}, nil
}
