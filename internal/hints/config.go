package hints

// Config holds hint generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the settings used for every hint request.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   150,
		Temperature: 0.7,
	}
}
