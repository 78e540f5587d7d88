package questions

import (
	"slices"
	"testing"
)

func TestBankIsWellFormed(t *testing.T) {
	qs := Bank()
	if len(qs) == 0 {
		t.Fatal("expected a non-empty bank")
	}
	for i, q := range qs {
		if q.Text == "" {
			t.Errorf("question %d has no text", i)
		}
		if !slices.Contains(q.Answers, q.CorrectAnswer) {
			t.Errorf("question %d: correct answer %q not among answers %v", i, q.CorrectAnswer, q.Answers)
		}
	}
}

func TestBankReturnsCopies(t *testing.T) {
	a := Bank()
	a[0].CorrectAnswer = "tampered"
	if Bank()[0].CorrectAnswer == "tampered" {
		t.Fatal("Bank must not share its backing slice with callers")
	}
}
