package query

import "fmt"

// TermQuery 精确匹配查询
type TermQuery struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (q *TermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *TermQuery) ToSQL() (string, []interface{}, error) {
	return fmt.Sprintf("%s = ?", q.Field), []interface{}{q.Value}, nil
}
