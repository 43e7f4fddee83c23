package record

import (
	"context"

	"github.com/pkg/errors"

	"github.com/php-service-bus/active-record/executor"
	"github.com/php-service-bus/active-record/logger"
	"github.com/php-service-bus/active-record/metadata"
	"github.com/php-service-bus/active-record/query"
	"github.com/php-service-bus/active-record/uid"
)

// Table 描述一个持久化实体对应的数据库表
type Table interface {
	TableName() string
	PrimaryKey() string
}

// DefaultPrimaryKey 可嵌入的默认主键实现，主键列为 id
type DefaultPrimaryKey struct{}

func (DefaultPrimaryKey) PrimaryKey() string {
	return "id"
}

type RepositoryOptions struct {
	Table    Table
	Executor executor.Executor

	// Loader 列元数据加载器，为空时基于 Executor 和进程内缓存构建
	Loader *metadata.Loader

	Logger logger.Logger
}

// Repository 单张表的实体仓库，是 Record 实例的唯一工厂
type Repository struct {
	table    Table
	executor executor.Executor
	loader   *metadata.Loader
	logger   logger.Logger
	uuidGen  *uid.UUIDGenerator
}

func NewRepositoryWithOptions(options *RepositoryOptions) (*Repository, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.Table == nil {
		return nil, errors.New("Table is required")
	}
	if options.Executor == nil {
		return nil, errors.New("Executor is required")
	}

	l := options.Logger
	if l == nil {
		l = logger.Default()
	}

	loader := options.Loader
	if loader == nil {
		var err error
		loader, err = metadata.NewLoaderWithOptions(&metadata.LoaderOptions{
			Executor: options.Executor,
			Logger:   l,
		})
		if err != nil {
			return nil, errors.WithMessage(err, "metadata.NewLoaderWithOptions failed")
		}
	}

	return &Repository{
		table:    options.Table,
		executor: options.Executor,
		loader:   loader,
		logger:   l,
		uuidGen:  uid.NewUUIDGeneratorWithOptions(&uid.UUIDOptions{Version: "v4", WithHyphens: true}),
	}, nil
}

// newRecord 实体的内部工厂，fields 的所有权移交给实体
func (r *Repository) newRecord(columns map[string]string, fields map[string]any, isNew bool) *Record {
	return &Record{
		table:    r.table,
		executor: r.executor,
		logger:   r.logger,
		uuidGen:  r.uuidGen,
		columns:  columns,
		fields:   fields,
		changes:  make(map[string]any),
		isNew:    isNew,
	}
}

// Create 用初始字段构建新实体并立即保存。所有初始字段都经过与 Set 相同的
// 列校验，存在未声明列时返回 ErrUnknownColumn。保存产生的标识被记录到实体，
// 之后可通过 LastInsertID 读取。
func (r *Repository) Create(ctx context.Context, fields map[string]any) (*Record, error) {
	columns, err := r.loader.Columns(ctx, r.table.TableName())
	if err != nil {
		return nil, err
	}

	record := r.newRecord(columns, make(map[string]any), true)
	for name, value := range fields {
		if err := record.Set(name, value); err != nil {
			return nil, err
		}
	}

	id, err := record.Save(ctx)
	if err != nil {
		return nil, err
	}
	if s, ok := id.(string); ok {
		record.insertedID = s
	}

	return record, nil
}

// FindByPK 按主键等值查找实体，未命中时返回 (nil, nil)
func (r *Repository) FindByPK(ctx context.Context, id any) (*Record, error) {
	return r.FindOne(ctx, &query.TermQuery{Field: r.table.PrimaryKey(), Value: id})
}

// FindOne 按条件查找至多一行并水化实体，未命中时返回 (nil, nil)。
// 结果多于一行时返回 executor.ErrOneResultExpected。
func (r *Repository) FindOne(ctx context.Context, q query.Query) (*Record, error) {
	columns, err := r.loader.Columns(ctx, r.table.TableName())
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := query.BuildSelect(r.table.TableName(), q)
	if err != nil {
		return nil, err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}

	row, err := cursor.FetchOne()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	return r.newRecord(columns, unescapeRow(r.executor, row), false), nil
}

// Find 按条件查找多行并逐行水化实体，保持结果行顺序；
// 无匹配时返回空切片。任何一行水化失败都会中止并返回错误。
func (r *Repository) Find(ctx context.Context, q query.Query, opts ...query.QueryOption) ([]*Record, error) {
	columns, err := r.loader.Columns(ctx, r.table.TableName())
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := query.BuildSelect(r.table.TableName(), q, opts...)
	if err != nil {
		return nil, err
	}

	cursor, err := r.executor.Execute(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}

	rows, err := cursor.FetchAll()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.newRecord(columns, unescapeRow(r.executor, row), false))
	}

	return records, nil
}
