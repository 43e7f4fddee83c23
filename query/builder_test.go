package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildSelect(t *testing.T) {
	Convey("测试 BuildSelect 方法", t, func() {
		Convey("无条件查询", func() {
			sql, args, err := BuildSelect("users", nil)
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "SELECT * FROM users")
			So(args, ShouldBeNil)
		})

		Convey("带等值条件", func() {
			sql, args, err := BuildSelect("users", &TermQuery{Field: "id", Value: "u1"})
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "SELECT * FROM users WHERE id = ?")
			So(args, ShouldResemble, []interface{}{"u1"})
		})

		Convey("带排序和分页", func() {
			sql, args, err := BuildSelect("users", &TermQuery{Field: "status", Value: "active"},
				WithOrderBy("age"), WithOrderDesc(), WithLimit(10), WithOffset(20))
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "SELECT * FROM users WHERE status = ? ORDER BY age DESC LIMIT 10 OFFSET 20")
			So(args, ShouldResemble, []interface{}{"active"})
		})

		Convey("默认升序排序", func() {
			sql, _, err := BuildSelect("users", nil, WithOrderBy("name"))
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "SELECT * FROM users ORDER BY name ASC")
		})
	})
}

func TestBuildInsert(t *testing.T) {
	Convey("测试 BuildInsert 方法", t, func() {
		Convey("列按名称排序", func() {
			sql, args, err := BuildInsert("users", map[string]interface{}{
				"name": "John",
				"age":  30,
				"id":   "u1",
			}, "")
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "INSERT INTO users (age, id, name) VALUES (?, ?, ?)")
			So(args, ShouldResemble, []interface{}{30, "u1", "John"})
		})

		Convey("带 RETURNING 子句", func() {
			sql, _, err := BuildInsert("users", map[string]interface{}{"name": "John"}, "id")
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "INSERT INTO users (name) VALUES (?) RETURNING id")
		})

		Convey("空字段集返回错误", func() {
			_, _, err := BuildInsert("users", map[string]interface{}{}, "")
			So(err, ShouldEqual, ErrEmptyFieldSet)
		})
	})
}

func TestBuildUpdate(t *testing.T) {
	Convey("测试 BuildUpdate 方法", t, func() {
		Convey("仅覆盖变更列", func() {
			sql, args, err := BuildUpdate("users", map[string]interface{}{
				"name": "Jane",
				"age":  31,
			}, "id", "u1")
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "UPDATE users SET age = ?, name = ? WHERE id = ?")
			So(args, ShouldResemble, []interface{}{31, "Jane", "u1"})
		})

		Convey("空变更集返回错误", func() {
			_, _, err := BuildUpdate("users", map[string]interface{}{}, "id", "u1")
			So(err, ShouldEqual, ErrEmptyFieldSet)
		})
	})
}

func TestBuildDelete(t *testing.T) {
	Convey("测试 BuildDelete 方法", t, func() {
		sql, args, err := BuildDelete("users", "id", "u1")
		So(err, ShouldBeNil)
		So(sql, ShouldEqual, "DELETE FROM users WHERE id = ?")
		So(args, ShouldResemble, []interface{}{"u1"})
	})
}
