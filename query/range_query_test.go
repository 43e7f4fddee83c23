package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRangeQueryToSQL(t *testing.T) {
	Convey("测试 RangeQuery ToSQL 方法", t, func() {
		Convey("上下界组合", func() {
			q := &RangeQuery{
				Field: "age",
				Gte:   18,
				Lt:    60,
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "age >= ? AND age < ?")
			So(args, ShouldResemble, []interface{}{18, 60})
		})

		Convey("单个条件", func() {
			q := &RangeQuery{
				Field: "score",
				Gt:    95.5,
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "score > ?")
			So(args, ShouldResemble, []interface{}{95.5})
		})

		Convey("没有条件", func() {
			q := &RangeQuery{Field: "age"}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1=1")
			So(args, ShouldBeNil)
		})
	})
}

func TestBoolQueryToSQL(t *testing.T) {
	Convey("测试 BoolQuery ToSQL 方法", t, func() {
		Convey("Must 子句以 AND 连接", func() {
			q := &BoolQuery{
				Must: []Query{
					&TermQuery{Field: "status", Value: "active"},
					&TermQuery{Field: "age", Value: 25},
				},
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(status = ? AND age = ?)")
			So(args, ShouldResemble, []interface{}{"active", 25})
		})

		Convey("MustNot 子句取反", func() {
			q := &BoolQuery{
				MustNot: []Query{
					&TermQuery{Field: "status", Value: "deleted"},
				},
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(NOT (status = ?))")
			So(args, ShouldResemble, []interface{}{"deleted"})
		})

		Convey("空查询", func() {
			q := &BoolQuery{}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1=1")
			So(args, ShouldBeNil)
		})
	})
}
