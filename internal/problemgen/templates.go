package problemgen

// Template describes one family of questions: the operation, the lowest
// grade it is offered at, the base operand range and its phrasings.
//
// Phrasings use {a} and {b} for operands. Division phrasings use
// {dividend} for the dividend and {b} for the divisor.
type Template struct {
	Tier      int
	Operation Operation
	MinValue  int
	MaxValue  int
	Phrasings []string
}

// DefaultTemplates is the built-in template table.
var DefaultTemplates = []Template{
	// Lower primary.
	{
		Tier: 1, Operation: OpAddition, MinValue: 1, MaxValue: 10,
		Phrasings: []string{
			"What is {a} + {b}?",
			"Add {a} and {b}",
			"If you have {a} apples and get {b} more, how many do you have?",
			"{a} plus {b} equals what?",
		},
	},
	{
		Tier: 1, Operation: OpSubtraction, MinValue: 1, MaxValue: 10,
		Phrasings: []string{
			"What is {a} - {b}?",
			"Subtract {b} from {a}",
			"If you have {a} toys and give away {b}, how many are left?",
			"{a} minus {b} equals what?",
		},
	},

	// Upper primary.
	{
		Tier: 2, Operation: OpAddition, MinValue: 10, MaxValue: 50,
		Phrasings: []string{
			"Calculate {a} + {b}",
			"What is the sum of {a} and {b}?",
			"Add {a} to {b}",
			"{a} + {b} = ?",
		},
	},
	{
		Tier: 2, Operation: OpSubtraction, MinValue: 10, MaxValue: 50,
		Phrasings: []string{
			"Calculate {a} - {b}",
			"What is the difference between {a} and {b}?",
			"Subtract {b} from {a}",
			"{a} - {b} = ?",
		},
	},
	{
		Tier: 2, Operation: OpMultiplication, MinValue: 2, MaxValue: 10,
		Phrasings: []string{
			"What is {a} × {b}?",
			"Multiply {a} by {b}",
			"What is {a} times {b}?",
			"{a} × {b} = ?",
		},
	},

	// Form 1.
	{
		Tier: 3, Operation: OpAddition, MinValue: 50, MaxValue: 200,
		Phrasings: []string{
			"Calculate {a} + {b}",
			"What is {a} plus {b}?",
			"Find the sum: {a} + {b}",
			"{a} + {b} = ?",
		},
	},
	{
		Tier: 3, Operation: OpMultiplication, MinValue: 10, MaxValue: 15,
		Phrasings: []string{
			"Calculate {a} × {b}",
			"What is {a} multiplied by {b}?",
			"Find the product: {a} × {b}",
			"{a} × {b} = ?",
		},
	},
	{
		Tier: 3, Operation: OpDivision, MinValue: 2, MaxValue: 12,
		Phrasings: []string{
			"What is {dividend} ÷ {b}?",
			"Divide {dividend} by {b}",
			"How many times does {b} go into {dividend}?",
			"{dividend} ÷ {b} = ?",
		},
	},

	// Form 2-4.
	{
		Tier: 4, Operation: OpAddition, MinValue: 100, MaxValue: 1000,
		Phrasings: []string{
			"Calculate {a} + {b}",
			"What is the sum of {a} and {b}?",
			"Add: {a} + {b}",
			"{a} + {b} = ?",
		},
	},
	{
		Tier: 4, Operation: OpMultiplication, MinValue: 15, MaxValue: 25,
		Phrasings: []string{
			"Calculate {a} × {b}",
			"What is {a} times {b}?",
			"Multiply: {a} × {b}",
			"{a} × {b} = ?",
		},
	},
	{
		Tier: 4, Operation: OpDivision, MinValue: 5, MaxValue: 20,
		Phrasings: []string{
			"Calculate {dividend} ÷ {b}",
			"What is {dividend} divided by {b}?",
			"Divide: {dividend} ÷ {b}",
			"{dividend} ÷ {b} = ?",
		},
	},
}

// eligible returns the templates whose tier is at or below grade.
func eligible(templates []Template, grade int) []Template {
	var out []Template
	for _, t := range templates {
		if t.Tier <= grade {
			out = append(out, t)
		}
	}
	return out
}
