package executor

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/php-service-bus/active-record/logger"
)

type SQLExecutorOptions struct {
	Driver   string `cfg:"driver" def:"mysql"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`

	Logger logger.Logger
}

type SQLExecutor struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewSQLExecutorWithOptions(options *SQLExecutorOptions) (*SQLExecutor, error) {
	dsn := options.DSN
	if dsn == "" {
		switch options.Driver {
		case "mysql":
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
		case "sqlite3":
			dsn = options.Database
		default:
			return nil, errors.Errorf("unsupported driver: %s", options.Driver)
		}
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "sql.Open failed")
	}

	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.Ping(); err != nil {
		return nil, errors.WithMessage(err, "db.Ping failed")
	}

	l := options.Logger
	if l == nil {
		l = logger.Default()
	}

	return &SQLExecutor{
		db:     db,
		driver: options.Driver,
		logger: l,
	}, nil
}

// sqlCursor 执行结果游标，行在执行时全部物化，游标本身不持有连接
type sqlCursor struct {
	rows         []map[string]any
	lastInsertID string
	affectedRows int64
}

func (c *sqlCursor) LastInsertID() string {
	return c.lastInsertID
}

func (c *sqlCursor) AffectedRows() int64 {
	return c.affectedRows
}

func (c *sqlCursor) FetchOne() (map[string]any, error) {
	if len(c.rows) == 0 {
		return nil, nil
	}
	if len(c.rows) > 1 {
		return nil, errors.WithMessagef(ErrOneResultExpected, "got %d rows", len(c.rows))
	}
	return c.rows[0], nil
}

func (c *sqlCursor) FetchAll() ([]map[string]any, error) {
	if c.rows == nil {
		return []map[string]any{}, nil
	}
	return c.rows, nil
}

func (e *SQLExecutor) Execute(ctx context.Context, sqlStr string, args []any) (Cursor, error) {
	sqlStr, args = e.formatSQL(sqlStr, args)
	e.logger.DebugContext(ctx, "execute sql", "sql", sqlStr, "args", args)

	if isQuerySQL(sqlStr) {
		rows, err := e.db.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		result, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		return &sqlCursor{rows: result}, nil
	}

	result, err := e.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	cursor := &sqlCursor{}
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		cursor.lastInsertID = strconv.FormatInt(id, 10)
	}
	if n, err := result.RowsAffected(); err == nil {
		cursor.affectedRows = n
	}
	return cursor, nil
}

// isQuerySQL 判断语句是否产生结果集
func isQuerySQL(sqlStr string) bool {
	verb := strings.ToUpper(firstWord(sqlStr))
	switch verb {
	case "SELECT", "PRAGMA", "SHOW", "DESCRIBE", "EXPLAIN", "WITH":
		return true
	}
	// INSERT ... RETURNING 也产生结果集
	return strings.Contains(strings.ToUpper(sqlStr), " RETURNING ")
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, " \t\n"); idx != -1 {
		return s[:idx]
	}
	return s
}

// scanRows 扫描结果集为列名到值的映射列表
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		data := make(map[string]any)
		for i, col := range columns {
			data[col] = values[i]
		}
		result = append(result, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// 辅助函数：将参数占位符格式化为对应数据库的格式
func (e *SQLExecutor) formatSQL(sqlStr string, args []any) (string, []any) {
	if e.driver == "postgres" {
		// PostgreSQL 使用 $1, $2, $3... 格式
		count := 1
		for strings.Contains(sqlStr, "?") {
			sqlStr = strings.Replace(sqlStr, "?", fmt.Sprintf("$%d", count), 1)
			count++
		}
	}
	return sqlStr, args
}

// SupportsReturning 是否支持 INSERT ... RETURNING 语法
func (e *SQLExecutor) SupportsReturning() bool {
	return e.driver == "postgres"
}

// UnescapeBinary 解码 PostgreSQL bytea 的 \x 十六进制转义，其他值原样返回
func (e *SQLExecutor) UnescapeBinary(value any) any {
	switch v := value.(type) {
	case string:
		if decoded, ok := unescapeByteaHex(v); ok {
			return decoded
		}
	case []byte:
		if decoded, ok := unescapeByteaHex(string(v)); ok {
			return decoded
		}
	}
	return value
}

func unescapeByteaHex(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, `\x`) {
		return nil, false
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// DescribeTable 返回表的列名到声明类型的映射，类型统一为小写
func (e *SQLExecutor) DescribeTable(ctx context.Context, table string) (map[string]string, error) {
	switch e.driver {
	case "sqlite3":
		cursor, err := e.Execute(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table), nil)
		if err != nil {
			return nil, err
		}
		rows, err := cursor.FetchAll()
		if err != nil {
			return nil, err
		}
		columns := make(map[string]string, len(rows))
		for _, row := range rows {
			columns[valueToString(row["name"])] = strings.ToLower(valueToString(row["type"]))
		}
		return columns, nil
	case "mysql":
		cursor, err := e.Execute(ctx,
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?",
			[]any{table})
		if err != nil {
			return nil, err
		}
		return columnsFromRows(cursor)
	default:
		cursor, err := e.Execute(ctx,
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?",
			[]any{table})
		if err != nil {
			return nil, err
		}
		return columnsFromRows(cursor)
	}
}

func columnsFromRows(cursor Cursor) (map[string]string, error) {
	rows, err := cursor.FetchAll()
	if err != nil {
		return nil, err
	}
	columns := make(map[string]string, len(rows))
	for _, row := range rows {
		name := row["column_name"]
		if name == nil {
			name = row["COLUMN_NAME"]
		}
		dataType := row["data_type"]
		if dataType == nil {
			dataType = row["DATA_TYPE"]
		}
		columns[valueToString(name)] = strings.ToLower(valueToString(dataType))
	}
	return columns, nil
}

func valueToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *SQLExecutor) Close() error {
	return e.db.Close()
}
