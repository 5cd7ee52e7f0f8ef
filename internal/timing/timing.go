// Package timing computes the countdown a player gets for a question.
package timing

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/abhisek/mathsprint/internal/problemgen"
)

const (
	// MinSeconds and MaxSeconds bound every time limit.
	MinSeconds = 15
	MaxSeconds = 120

	// WarningSeconds is the remaining time at which players are warned.
	WarningSeconds = 10
)

var operationFactor = map[problemgen.Operation]float64{
	problemgen.OpAddition:       1.0,
	problemgen.OpSubtraction:    1.1,
	problemgen.OpMultiplication: 1.3,
	problemgen.OpDivision:       1.5,
}

// magnitudeSteps compound: a number above 1000 gets all three factors.
var magnitudeSteps = []struct {
	above  int
	factor float64
}{
	{100, 1.2},
	{500, 1.3},
	{1000, 1.4},
}

var integerRe = regexp.MustCompile(`\d+`)

// TimeLimit returns the number of seconds allowed for q when played at
// grade and level. The result is always in [MinSeconds, MaxSeconds] and
// depends only on its inputs.
func TimeLimit(q *problemgen.Question, grade, level int) int {
	var t float64
	switch {
	case grade <= 2:
		t = 45
	case grade <= 4:
		t = 35
	default:
		t = 25
	}

	if f, ok := operationFactor[q.Operation]; ok {
		t *= f
	}

	t *= 1 + float64(level-1)*0.1

	if n, ok := LargestNumber(q.Text); ok {
		for _, step := range magnitudeSteps {
			if n > step.above {
				t *= step.factor
			}
		}
	}

	return int(math.Round(max(MinSeconds, min(MaxSeconds, t))))
}

// LargestNumber returns the largest integer literal in text.
func LargestNumber(text string) (int, bool) {
	found := false
	largest := 0
	for _, m := range integerRe.FindAllString(text, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			// Literal overflows int; it is larger than every threshold.
			n = math.MaxInt
		}
		if !found || n > largest {
			largest = n
			found = true
		}
	}
	return largest, found
}

// Budget converts a limit in seconds to a Duration.
func Budget(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
