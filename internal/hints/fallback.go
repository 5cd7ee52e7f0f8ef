package hints

import "github.com/abhisek/mathsprint/internal/problemgen"

// DefaultHint is used when a generated hint comes back empty.
const DefaultHint = "Try thinking about this step by step!"

var cannedHints = map[problemgen.Operation][]string{
	problemgen.OpAddition: {
		"Try counting up from the bigger number!",
		"You can use your fingers to help count!",
		"Think about combining the two groups together!",
		"What happens when you put these numbers together?",
	},
	problemgen.OpSubtraction: {
		"Start with the bigger number and count backwards!",
		"Think about taking away from the first number!",
		"What's left when you remove some from the group?",
		"Try using objects to help you visualize!",
	},
	problemgen.OpMultiplication: {
		"Think about adding the same number multiple times!",
		"Remember your times tables!",
		"You can draw groups to help you!",
		"What pattern do you see in the numbers?",
	},
	problemgen.OpDivision: {
		"How many equal groups can you make?",
		"Think about sharing equally!",
		"What number times the divisor gives you this answer?",
		"Try counting how many times the smaller number fits!",
	},
}

// Canned returns the fallback hints for op. Unknown operations get the
// addition hints.
func Canned(op string) []string {
	if hs, ok := cannedHints[problemgen.Operation(op)]; ok {
		return hs
	}
	return cannedHints[problemgen.OpAddition]
}
