package query

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool  QueryType = "bool"
	QueryTypeTerm  QueryType = "term"
	QueryTypeRange QueryType = "range"
)

// Query 查询节点接口，生成 WHERE 子句片段和参数列表
type Query interface {
	Type() QueryType
	ToSQL() (string, []interface{}, error)
}
