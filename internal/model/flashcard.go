package model

// Flashcard is an immutable question/answer pair. Two cards are the same card
// when both fields are equal.
type Flashcard struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// SampleFlashcards is the starter deck offered to new users.
func SampleFlashcards() []Flashcard {
	return []Flashcard{
		{Question: "What is the capital of France?", Answer: "Paris"},
		{Question: "What is the main function of the heart?", Answer: "To pump blood throughout the body."},
		{Question: "What does 'const' declare in Go?", Answer: "A compile-time constant."},
		{Question: "What is the largest planet in our solar system?", Answer: "Jupiter"},
	}
}
