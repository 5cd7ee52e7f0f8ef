package problemgen

// Config controls the behavior of the LLMSource.
type Config struct {
	// Validators is the ordered list of validators to run on every
	// generated question. The first failure stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorQuestions is how many of the session's recent questions
	// the prompt lists as already asked. Zero lists all that are kept.
	MaxPriorQuestions int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators:        DefaultValidators,
		MaxTokens:         256,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
	}
}
