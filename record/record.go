// Package record 提供按表封装的 Active Record 实体：实体持有行的内存状态，
// 跟踪字段变更，并将变更翻译为最小的 INSERT/UPDATE/DELETE/SELECT 语句。
//
// 不同实体实例上的操作相互独立；同一实例上的操作必须由调用方串行化，
// fields/changes/isNew 等内存状态没有锁保护，设计假定每个实例单写者访问。
package record

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/php-service-bus/active-record/executor"
	"github.com/php-service-bus/active-record/logger"
	"github.com/php-service-bus/active-record/query"
	"github.com/php-service-bus/active-record/uid"
)

var (
	// ErrUnknownColumn 字段名不在表的声明列中，调用方编程错误
	ErrUnknownColumn = errors.New("unknown column")
	// ErrPrimaryKeyNotSpecified 主键字段缺失或为空，无法定位行
	ErrPrimaryKeyNotSpecified = errors.New("primary key not specified")
	// ErrUpdateRemovedEntry 刷新时行已不存在，通常是并发删除导致
	ErrUpdateRemovedEntry = errors.New("update removed entry")
)

// uuidType 声明类型为该值的主键列在插入时自动生成 v4 UUID
const uuidType = "uuid"

// Record 一张表中一行的内存映像，跟踪自上次保存以来的字段变更。
// 实例只能通过 Repository 创建。
type Record struct {
	table    Table
	executor executor.Executor
	logger   logger.Logger
	uuidGen  *uid.UUIDGenerator

	// columns 列名到声明类型的映射，按表加载一次
	columns map[string]string
	// fields 当前字段状态，权威数据
	fields map[string]any
	// changes 自上次保存以来的待写变更集
	changes map[string]any

	isNew      bool
	insertedID string
}

// Get 返回字段当前值，字段名不在声明列中时返回 ErrUnknownColumn
func (r *Record) Get(name string) (any, error) {
	if _, ok := r.columns[name]; !ok {
		return nil, errors.WithMessagef(ErrUnknownColumn, "column: %s, table: %s", name, r.table.TableName())
	}
	return r.fields[name], nil
}

// Set 写入字段值并记录变更，字段名不在声明列中时返回 ErrUnknownColumn，
// 此时 fields 与 changes 均不被修改
func (r *Record) Set(name string, value any) error {
	if _, ok := r.columns[name]; !ok {
		return errors.WithMessagef(ErrUnknownColumn, "column: %s, table: %s", name, r.table.TableName())
	}
	r.fields[name] = value
	r.changes[name] = value
	return nil
}

// Has 报告字段名是否是声明列，与字段当前是否有值无关
func (r *Record) Has(name string) bool {
	_, ok := r.columns[name]
	return ok
}

// IsNew 报告实体是否尚未持久化
func (r *Record) IsNew() bool {
	return r.isNew
}

// Fields 返回当前字段状态的副本
func (r *Record) Fields() map[string]any {
	fields := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		fields[k] = v
	}
	return fields
}

// LastInsertID 返回创建时捕获的标识，实体不是通过 Create 创建时为空字符串
func (r *Record) LastInsertID() string {
	return r.insertedID
}

// Save 保存实体。新实体执行 INSERT 并返回主键标识（string）；
// 已持久化实体仅对变更列执行 UPDATE 并返回受影响行数（int64），
// 变更集为空时直接返回 int64(0)，不发出 SQL。
//
// 变更集在发出写语句之前清空，避免重试时重复提交；写失败时内存状态
// 会认为变更已持久化，这是沿用的已知不一致窗口。
func (r *Record) Save(ctx context.Context) (any, error) {
	if r.isNew {
		return r.insert(ctx)
	}
	return r.update(ctx)
}

func (r *Record) insert(ctx context.Context) (string, error) {
	r.changes = make(map[string]any)

	// UUID 类型主键且调用方未提供值时自动生成
	pk := r.table.PrimaryKey()
	if _, ok := r.fields[pk]; !ok && r.columns[pk] == uuidType {
		r.fields[pk] = r.uuidGen.Generate()
	}

	returning := ""
	if rs, ok := r.executor.(executor.ReturningSupport); ok && rs.SupportsReturning() {
		returning = pk
	}

	sqlStr, args, err := query.BuildInsert(r.table.TableName(), r.fields, returning)
	if err != nil {
		return "", err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return "", err
	}

	var id string
	if returning != "" {
		row, err := cursor.FetchOne()
		if err != nil {
			return "", err
		}
		if row != nil {
			id = valueToString(row[pk])
		}
	} else if value, ok := r.fields[pk]; ok {
		id = valueToString(value)
	} else {
		id = cursor.LastInsertID()
	}

	// 主键此前不在字段中时，用后端返回的标识回填
	if _, ok := r.fields[pk]; !ok && id != "" {
		r.fields[pk] = id
	}

	r.isNew = false
	r.logger.DebugContext(ctx, "record inserted", "table", r.table.TableName(), "id", id)

	return id, nil
}

func (r *Record) update(ctx context.Context) (int64, error) {
	if len(r.changes) == 0 {
		return 0, nil
	}

	pkValue, err := r.resolvePrimaryKey()
	if err != nil {
		return 0, err
	}

	changes := r.changes
	r.changes = make(map[string]any)

	sqlStr, args, err := query.BuildUpdate(r.table.TableName(), changes, r.table.PrimaryKey(), pkValue)
	if err != nil {
		return 0, err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return 0, err
	}

	affected := cursor.AffectedRows()
	r.logger.DebugContext(ctx, "record updated", "table", r.table.TableName(), "affected", affected)

	return affected, nil
}

// Refresh 按主键重读行并替换内存字段状态，变更集被清空。
// 行已不存在时返回 ErrUpdateRemovedEntry。
func (r *Record) Refresh(ctx context.Context) error {
	pkValue, err := r.resolvePrimaryKey()
	if err != nil {
		return err
	}

	sqlStr, args, err := query.BuildSelect(r.table.TableName(),
		&query.TermQuery{Field: r.table.PrimaryKey(), Value: pkValue})
	if err != nil {
		return err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return err
	}

	row, err := cursor.FetchOne()
	if err != nil {
		return err
	}
	if row == nil {
		return errors.WithMessagef(ErrUpdateRemovedEntry,
			"table: %s, %s: %v", r.table.TableName(), r.table.PrimaryKey(), pkValue)
	}

	r.fields = unescapeRow(r.executor, row)
	r.changes = make(map[string]any)

	return nil
}

// Remove 按主键删除行并返回受影响行数。尚未持久化的实体是无操作成功，
// 不发出 SQL。删除后的实例代表已移除的行，调用方不应再对其发起变更操作。
func (r *Record) Remove(ctx context.Context) (int64, error) {
	if r.isNew {
		return 0, nil
	}

	pkValue, err := r.resolvePrimaryKey()
	if err != nil {
		return 0, err
	}

	sqlStr, args, err := query.BuildDelete(r.table.TableName(), r.table.PrimaryKey(), pkValue)
	if err != nil {
		return 0, err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return 0, err
	}

	return cursor.AffectedRows(), nil
}

// resolvePrimaryKey 从当前字段状态解析主键值，缺失或为空时失败
func (r *Record) resolvePrimaryKey() (any, error) {
	pk := r.table.PrimaryKey()
	value, ok := r.fields[pk]
	if !ok || value == nil || valueToString(value) == "" {
		return nil, errors.WithMessagef(ErrPrimaryKeyNotSpecified,
			"table: %s, column: %s", r.table.TableName(), pk)
	}
	return value, nil
}

// unescapeRow 对从存储读回的行做二进制反转义，能力由执行器可选实现
func unescapeRow(exec executor.Executor, row map[string]any) map[string]any {
	unescaper, ok := exec.(executor.BinaryUnescaper)
	if !ok {
		return row
	}
	fields := make(map[string]any, len(row))
	for k, v := range row {
		fields[k] = unescaper.UnescapeBinary(v)
	}
	return fields
}

func valueToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
