package llm

// price is USD per million tokens.
type price struct {
	input  float64
	output float64
}

// prices covers the models this package resolves by default or by
// friendly name. Requests to other models are logged without a cost.
var prices = map[string]price{
	"claude-haiku-4-5-20251001": {input: 1, output: 5},
	"claude-sonnet-4-20250514":  {input: 3, output: 15},
	"gpt-4o-mini":               {input: 0.15, output: 0.6},
	"gpt-4o":                    {input: 2.5, output: 10},
	"gemini-2.0-flash":          {input: 0.1, output: 0.4},
	"gemini-2.5-pro":            {input: 1.25, output: 10},
}

// costUSD prices u for model. ok is false for unknown models.
func costUSD(model string, u Usage) (cost float64, ok bool) {
	p, ok := prices[model]
	if !ok {
		return 0, false
	}
	return (float64(u.InputTokens)*p.input + float64(u.OutputTokens)*p.output) / 1e6, true
}
