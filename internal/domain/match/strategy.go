package match

// Strategy selects the first ranking stage a search tries.
type Strategy string

const (
	// StrategyAI reranks filter survivors with an LLM.
	StrategyAI Strategy = "ai"
	// StrategyEmbedding ranks by embedding cosine similarity blended with keywords.
	StrategyEmbedding Strategy = "embedding"
	// StrategyKeyword ranks by keyword overlap only.
	StrategyKeyword Strategy = "keyword"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyAI, StrategyEmbedding, StrategyKeyword:
		return true
	}
	return false
}

// Method records which stage actually produced a result's score.
type Method string

const (
	// MethodAI is an LLM-ranked result.
	MethodAI Method = "ai"
	// MethodFilter is a result ordered by structured score after the LLM failed.
	MethodFilter Method = "filter"
	// MethodEmbedding is a result ranked by embedding similarity.
	MethodEmbedding Method = "embedding"
	// MethodKeyword is a result ranked by keyword overlap.
	MethodKeyword Method = "keyword"
)
