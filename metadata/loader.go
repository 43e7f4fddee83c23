// Package metadata 将表名解析为列名到声明类型的映射，优先读取缓存。
// 缓存未命中时才向数据库的信息模式发起一次列查询，结果写回缓存。
// 未命中回填不做互斥，并发加载同一张表时允许重复查询，后写覆盖先写。
package metadata

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/php-service-bus/active-record/executor"
	"github.com/php-service-bus/active-record/logger"
	"github.com/php-service-bus/active-record/store"
)

// cacheKeySuffix 固定的缓存键后缀，保证键空间与其他使用方隔离
const cacheKeySuffix = "_columns"

type LoaderOptions struct {
	Executor executor.Executor
	Cache    store.Store[string, map[string]string]
	Logger   logger.Logger
}

type Loader struct {
	executor executor.Executor
	cache    store.Store[string, map[string]string]
	logger   logger.Logger
}

func NewLoaderWithOptions(options *LoaderOptions) (*Loader, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.Executor == nil {
		return nil, errors.New("Executor is required")
	}

	cache := options.Cache
	if cache == nil {
		cache = store.NewMapStoreWithOptions[string, map[string]string]()
	}

	l := options.Logger
	if l == nil {
		l = logger.Default()
	}

	return &Loader{
		executor: options.Executor,
		cache:    cache,
		logger:   l,
	}, nil
}

// CacheKey 计算表名对应的缓存键
func CacheKey(table string) string {
	sum := sha1.Sum([]byte(table + cacheKeySuffix))
	return hex.EncodeToString(sum[:])
}

// Columns 返回表的列名到声明类型的映射，类型统一为小写。
// 结果是普通值映射，可安全共享。
func (l *Loader) Columns(ctx context.Context, table string) (map[string]string, error) {
	if table == "" {
		return nil, errors.New("table is empty")
	}

	key := CacheKey(table)

	columns, err := l.cache.Get(ctx, key)
	if err == nil {
		l.logger.DebugContext(ctx, "metadata cache hit", "table", table)
		return columns, nil
	}
	if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, errors.WithMessage(err, "cache.Get failed")
	}

	l.logger.DebugContext(ctx, "metadata cache miss", "table", table)

	columns, err = l.describe(ctx, table)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, key, columns); err != nil {
		return nil, errors.WithMessage(err, "cache.Set failed")
	}

	return columns, nil
}

func (l *Loader) describe(ctx context.Context, table string) (map[string]string, error) {
	// 执行器自带内省能力时优先使用，按方言生成信息模式查询
	if introspector, ok := l.executor.(executor.SchemaIntrospector); ok {
		return introspector.DescribeTable(ctx, table)
	}

	cursor, err := l.executor.Execute(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?",
		[]any{table})
	if err != nil {
		return nil, err
	}

	rows, err := cursor.FetchAll()
	if err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(rows))
	for _, row := range rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		if b, ok := row["column_name"].([]byte); ok {
			name = string(b)
		}
		if b, ok := row["data_type"].([]byte); ok {
			dataType = string(b)
		}
		columns[name] = strings.ToLower(dataType)
	}

	return columns, nil
}
