package executor

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// 测试配置：单连接内存数据库，保证所有语句命中同一个库
var testSQLiteOptions = &SQLExecutorOptions{
	Driver:   "sqlite3",
	Database: ":memory:",
	MaxConns: 1,
	MaxIdle:  1,
}

func newTestExecutor(t *testing.T) *SQLExecutor {
	t.Helper()
	exec, err := NewSQLExecutorWithOptions(testSQLiteOptions)
	if err != nil {
		t.Fatalf("NewSQLExecutorWithOptions failed: %v", err)
	}
	t.Cleanup(func() { exec.Close() })
	return exec
}

func TestNewSQLExecutorWithOptions(t *testing.T) {
	Convey("测试 NewSQLExecutorWithOptions 方法", t, func() {
		Convey("使用内存数据库创建连接", func() {
			exec, err := NewSQLExecutorWithOptions(testSQLiteOptions)
			So(err, ShouldBeNil)
			So(exec, ShouldNotBeNil)
			So(exec.driver, ShouldEqual, "sqlite3")
			exec.Close()
		})

		Convey("不支持的驱动返回错误", func() {
			_, err := NewSQLExecutorWithOptions(&SQLExecutorOptions{Driver: "oracle"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSQLExecutorExecute(t *testing.T) {
	Convey("测试 SQLExecutor Execute 方法", t, func() {
		ctx := context.Background()
		exec := newTestExecutor(t)

		_, err := exec.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)", nil)
		So(err, ShouldBeNil)

		Convey("插入语句报告受影响行数和自增主键", func() {
			cursor, err := exec.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", []any{"John", 30})
			So(err, ShouldBeNil)
			So(cursor.AffectedRows(), ShouldEqual, 1)
			So(cursor.LastInsertID(), ShouldEqual, "1")
		})

		Convey("查询语句返回全部行", func() {
			_, err := exec.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", []any{"John", 30})
			So(err, ShouldBeNil)
			_, err = exec.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", []any{"Jane", 25})
			So(err, ShouldBeNil)

			cursor, err := exec.Execute(ctx, "SELECT * FROM users ORDER BY age ASC", nil)
			So(err, ShouldBeNil)

			rows, err := cursor.FetchAll()
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0]["name"], ShouldEqual, "Jane")
			So(rows[1]["name"], ShouldEqual, "John")
		})

		Convey("FetchOne 在无结果时返回 nil", func() {
			cursor, err := exec.Execute(ctx, "SELECT * FROM users WHERE name = ?", []any{"nobody"})
			So(err, ShouldBeNil)

			row, err := cursor.FetchOne()
			So(err, ShouldBeNil)
			So(row, ShouldBeNil)
		})

		Convey("FetchOne 在多于一行时返回 ErrOneResultExpected", func() {
			_, err := exec.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", []any{"John", 30})
			So(err, ShouldBeNil)
			_, err = exec.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", []any{"John", 31})
			So(err, ShouldBeNil)

			cursor, err := exec.Execute(ctx, "SELECT * FROM users WHERE name = ?", []any{"John"})
			So(err, ShouldBeNil)

			_, err = cursor.FetchOne()
			So(err, ShouldWrap, ErrOneResultExpected)
		})

		Convey("执行失败的语句返回错误", func() {
			_, err := exec.Execute(ctx, "SELECT * FROM no_such_table", nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSQLExecutorDescribeTable(t *testing.T) {
	Convey("测试 SQLExecutor DescribeTable 方法", t, func() {
		ctx := context.Background()
		exec := newTestExecutor(t)

		_, err := exec.Execute(ctx, "CREATE TABLE items (id UUID PRIMARY KEY, title TEXT, price REAL)", nil)
		So(err, ShouldBeNil)

		columns, err := exec.DescribeTable(ctx, "items")
		So(err, ShouldBeNil)
		So(columns, ShouldResemble, map[string]string{
			"id":    "uuid",
			"title": "text",
			"price": "real",
		})
	})
}

func TestSQLExecutorFormatSQL(t *testing.T) {
	Convey("测试 SQLExecutor formatSQL 方法", t, func() {
		Convey("postgres 占位符改写为 $n 格式", func() {
			exec := &SQLExecutor{driver: "postgres"}
			sqlStr, args := exec.formatSQL("SELECT * FROM users WHERE id = ? AND age > ?", []any{"u1", 18})
			So(sqlStr, ShouldEqual, "SELECT * FROM users WHERE id = $1 AND age > $2")
			So(args, ShouldResemble, []any{"u1", 18})
		})

		Convey("其他驱动保持 ? 占位符", func() {
			exec := &SQLExecutor{driver: "mysql"}
			sqlStr, _ := exec.formatSQL("SELECT * FROM users WHERE id = ?", []any{"u1"})
			So(sqlStr, ShouldEqual, "SELECT * FROM users WHERE id = ?")
		})
	})
}

func TestSQLExecutorUnescapeBinary(t *testing.T) {
	Convey("测试 SQLExecutor UnescapeBinary 方法", t, func() {
		exec := &SQLExecutor{driver: "postgres"}

		Convey("解码 \\x 十六进制转义", func() {
			So(exec.UnescapeBinary(`\x48656c6c6f`), ShouldResemble, []byte("Hello"))
			So(exec.UnescapeBinary([]byte(`\x01ff`)), ShouldResemble, []byte{0x01, 0xff})
		})

		Convey("普通值原样返回", func() {
			So(exec.UnescapeBinary("plain"), ShouldEqual, "plain")
			So(exec.UnescapeBinary(int64(42)), ShouldEqual, int64(42))
			So(exec.UnescapeBinary(nil), ShouldBeNil)
		})

		Convey("非法十六进制原样返回", func() {
			So(exec.UnescapeBinary(`\xzz`), ShouldEqual, `\xzz`)
		})
	})
}

func TestIsQuerySQL(t *testing.T) {
	Convey("测试 isQuerySQL 方法", t, func() {
		So(isQuerySQL("SELECT * FROM users"), ShouldBeTrue)
		So(isQuerySQL("  select 1"), ShouldBeTrue)
		So(isQuerySQL("PRAGMA table_info(users)"), ShouldBeTrue)
		So(isQuerySQL("INSERT INTO users (id) VALUES (?)"), ShouldBeFalse)
		So(isQuerySQL("INSERT INTO users (id) VALUES (?) RETURNING id"), ShouldBeTrue)
		So(isQuerySQL("UPDATE users SET name = ?"), ShouldBeFalse)
		So(isQuerySQL("DELETE FROM users"), ShouldBeFalse)
	})
}
