package uid

import (
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUUIDGenerator(t *testing.T) {
	Convey("测试 UUIDGenerator 方法", t, func() {
		Convey("默认生成 32 位十六进制 v4", func() {
			generator := NewUUIDGeneratorWithOptions(nil)

			id := generator.Generate()
			So(len(id), ShouldEqual, 32)

			parsed, err := uuid.Parse(id)
			So(err, ShouldBeNil)
			So(parsed.Version(), ShouldEqual, uuid.Version(4))
		})

		Convey("带连字符生成标准格式", func() {
			generator := NewUUIDGeneratorWithOptions(&UUIDOptions{Version: "v4", WithHyphens: true})

			id := generator.Generate()
			So(len(id), ShouldEqual, 36)

			parsed, err := uuid.Parse(id)
			So(err, ShouldBeNil)
			So(parsed.Version(), ShouldEqual, uuid.Version(4))
		})

		Convey("v1 与 v7 版本", func() {
			for version, expect := range map[string]uuid.Version{
				"v1": 1,
				"v7": 7,
			} {
				generator := NewUUIDGeneratorWithOptions(&UUIDOptions{Version: version, WithHyphens: true})

				parsed, err := uuid.Parse(generator.Generate())
				So(err, ShouldBeNil)
				So(parsed.Version(), ShouldEqual, expect)
			}
		})

		Convey("连续生成不重复", func() {
			generator := NewUUIDGeneratorWithOptions(&UUIDOptions{Version: "v4"})

			seen := map[string]bool{}
			for i := 0; i < 1000; i++ {
				id := generator.Generate()
				So(seen[id], ShouldBeFalse)
				seen[id] = true
			}
		})
	})
}
