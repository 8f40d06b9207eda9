package domain

import "encoding/json"

// ID is a weibo identifier. The crawler emits it as a JSON string or a
// JSON number depending on source; both decode to the string form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Post is a single crawled weibo record. The crawler supplies id, text,
// user_id and created_at; StockAnalysis is attached by this pipeline.
type Post struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	UserID    ID     `json:"user_id"`
	CreatedAt string `json:"created_at"`

	StockAnalysis *StockAnalysis `json:"stock_analysis,omitempty"`
}

// StockAnalysis is the classification result attached to a post.
type StockAnalysis struct {
	IsStockRelated bool   `json:"is_stock_related"`
	Analysis       string `json:"analysis"`
}

// DuplicateAnalysis marks a post whose ID was already pushed; the
// classifier is not invoked again for it.
const DuplicateAnalysis = "(已推送，跳过重复分析)"
