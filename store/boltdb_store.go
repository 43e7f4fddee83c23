package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/php-service-bus/active-record/serializer"
)

type BoltDBStoreOptions struct {
	// DBPath 是数据库文件的路径，文件不存在时自动创建。
	DBPath string `cfg:"dbPath"`

	// Bucket 是存储键值对的桶名。
	Bucket string `cfg:"bucket" def:"default"`

	// Timeout 是获取文件锁的等待时间。设置为零时将无限期等待。
	Timeout time.Duration `cfg:"timeout"`

	// ReadOnly 以只读模式打开数据库。
	ReadOnly bool `cfg:"readOnly"`
}

// BoltDBStore 基于 bbolt 的持久化 KV 存储，不支持过期
type BoltDBStore[K, V any] struct {
	db     *bolt.DB
	bucket []byte

	keySerializer serializer.Serializer[K, []byte]
	valSerializer serializer.Serializer[V, []byte]
}

func NewBoltDBStoreWithOptions[K, V any](options *BoltDBStoreOptions) (*BoltDBStore[K, V], error) {
	if options.DBPath == "" {
		return nil, errors.New("DBPath is required")
	}
	bucket := options.Bucket
	if bucket == "" {
		bucket = "default"
	}

	db, err := bolt.Open(options.DBPath, 0600, &bolt.Options{
		Timeout:  options.Timeout,
		ReadOnly: options.ReadOnly,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "bolt.Open failed")
	}

	if !options.ReadOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(bucket))
			return err
		}); err != nil {
			_ = db.Close()
			return nil, errors.WithMessage(err, "bolt CreateBucketIfNotExists failed")
		}
	}

	return &BoltDBStore[K, V]{
		db:            db,
		bucket:        []byte(bucket),
		keySerializer: serializer.NewMsgPackSerializer[K](),
		valSerializer: serializer.NewMsgPackSerializer[V](),
	}, nil
}

func (s *BoltDBStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := &setOptions{}
	for _, opt := range opts {
		opt(options)
	}

	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return err
	}

	valBytes, err := s.valSerializer.Serialize(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if options.IfNotExist && b.Get(keyBytes) != nil {
			return ErrConditionFailed
		}
		return b.Put(keyBytes, valBytes)
	})
}

func (s *BoltDBStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V

	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return zero, err
	}

	var valBytes []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get(keyBytes); v != nil {
			valBytes = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return zero, errors.WithMessage(err, "bolt View failed")
	}

	if valBytes == nil {
		return zero, ErrKeyNotFound
	}

	return s.valSerializer.Deserialize(valBytes)
}

func (s *BoltDBStore[K, V]) Del(ctx context.Context, key K) error {
	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(keyBytes)
	})
}

func (s *BoltDBStore[K, V]) Close() error {
	return s.db.Close()
}
