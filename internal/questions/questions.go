package questions

import (
	_ "embed"
	"encoding/json"
	"slices"
)

//go:embed questions.json
var raw []byte

// Question is one entry in the static bank. CorrectAnswer is compared
// against recorded answers by exact string equality when a question ends.
type Question struct {
	Text          string   `json:"text"`
	Answers       []string `json:"answers"`
	CorrectAnswer string   `json:"correct_answer"`
}

var bank []Question

func init() {
	if err := json.Unmarshal(raw, &bank); err != nil {
		panic("questions: bad embedded bank: " + err.Error())
	}
}

// Bank returns the question sequence used for every round.
func Bank() []Question {
	return slices.Clone(bank)
}
