package sentiment

// EstimatedSavings returns the dollar cost avoided by cache hits so far,
// given the price of one paid LLM call. Purely derived from the cache's own
// hit counter; it never issues a call itself.
func (c *SemanticCache) EstimatedSavings(costPerCall float64) float64 {
	hits, _ := c.Stats()
	return float64(hits) * costPerCall
}
