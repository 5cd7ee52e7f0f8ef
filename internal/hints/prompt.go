package hints

import "fmt"

func buildSystemPrompt(grade int) string {
	return fmt.Sprintf(`You are a helpful math tutor for grade %d students. Provide encouraging, age-appropriate hints that guide students toward the answer without giving it away directly. Keep hints simple and positive.`, grade)
}

func buildUserMessage(req Request) string {
	return fmt.Sprintf(`Give a helpful hint for this %s problem: %q. The student is in grade %d. Make the hint encouraging and educational, but don't give away the answer.`,
		req.Operation, req.Question, req.Grade)
}
