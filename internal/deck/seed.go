package deck

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"studybuddy/backend/internal/model"
)

type cardFile struct {
	Cards []model.Flashcard `yaml:"cards"`
}

// LoadCards reads a YAML document of the form
//
//	cards:
//	  - question: ...
//	    answer: ...
//
// Every card must have a non-blank question and answer.
func LoadCards(r io.Reader) ([]model.Flashcard, error) {
	var file cardFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode cards: %w", err)
	}

	for i, card := range file.Cards {
		if err := validate(card.Question, card.Answer); err != nil {
			return nil, fmt.Errorf("card %d: %w", i+1, err)
		}
	}
	return file.Cards, nil
}

func LoadCardsFile(path string) ([]model.Flashcard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card file: %w", err)
	}
	defer f.Close()
	return LoadCards(f)
}
