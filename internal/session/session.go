// Package session holds the phone's interaction flow as a pure state machine:
// wait for a prediction, ask the user whether it was right, respond, repeat.
//
// Every transition takes a State and returns a new one. Transitions that do
// not apply to the current view return the state unchanged.
package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/hunger/internal/answerlog"
	"github.com/mwiater/hunger/internal/predictor"
)

// View is the screen the user is looking at.
type View int

const (
	Loading View = iota
	Prompt
	FollowUp
)

func (v View) String() string {
	switch v {
	case Loading:
		return "loading"
	case Prompt:
		return "prompt"
	case FollowUp:
		return "followup"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// Rule decides whether an answer agrees with the prediction.
type Rule string

const (
	// Agree counts NotHungry+yes and Hungry+no as correct.
	Agree Rule = "agree"
	// Confirm asks whether the prediction is right, so every yes is correct.
	Confirm Rule = "confirm"
)

// ParseRule maps a config value onto a Rule.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case Agree, "":
		return Agree, nil
	case Confirm:
		return Confirm, nil
	}
	return "", fmt.Errorf("session: unknown agreement rule %q", s)
}

// Correct reports whether answering yes to prediction counts as agreement.
func (r Rule) Correct(prediction int, yes bool) bool {
	if r == Confirm {
		return yes
	}
	return (prediction == predictor.NotHungry && yes) || (prediction == predictor.Hungry && !yes)
}

// Prompt is the question shown for prediction. Under Agree a yes always
// means "I ate recently"; under Confirm it means "the prediction is right".
func (r Rule) Prompt(prediction int) string {
	switch {
	case r == Confirm && prediction == predictor.NotHungry:
		return PromptConfirmFed
	case r == Confirm:
		return PromptConfirmHungry
	case prediction == predictor.NotHungry:
		return PromptAgreeFed
	default:
		return PromptAgreeHungry
	}
}

// Ate translates an answer to prediction's prompt into whether the user has eaten.
func (r Rule) Ate(prediction int, yes bool) bool {
	if r == Confirm {
		return yes == (prediction == predictor.NotHungry)
	}
	return yes
}

// Describe is the one-line explanation shown in the results overlay.
func (r Rule) Describe() string {
	if r == Confirm {
		return "a yes answer counts as correct"
	}
	return "correct when your answer agrees with the prediction"
}

// AccuracyRecord is the running accuracy after one answer.
type AccuracyRecord struct {
	ID         uuid.UUID
	Attempt    int
	Percentage float64
}

// State is everything the interaction screens render.
type State struct {
	View       View
	Prediction *int

	Total    int
	Correct  int
	Accuracy float64
	History  []AccuracyRecord

	Message      string
	Suggestion   *Suggestion
	ShowResults  bool
	AnotherShown bool
}

// Follow-up messages.
const (
	MsgWalk     = "Great! Let's take a walk."
	MsgThanks   = "Thanks for letting us know!"
	MsgMove     = "Maybe move a bit."
	MsgSnack    = "Let me suggest a snack!"
	PromptHint  = "Answer to help the model learn."
	NoPredLabel = "No prediction yet"
)

// Prompts, keyed by rule and prediction.
const (
	PromptAgreeFed      = "You seem to have eaten recently. Is that correct?"
	PromptAgreeHungry   = "It looks like you haven't eaten. Have you?"
	PromptConfirmFed    = "It seems like you're NOT hungry. Is this correct?"
	PromptConfirmHungry = "It seems like you're hungry. Is this correct?"
)

// New returns the initial state.
func New() State { return State{View: Loading} }

// Receive records a prediction and moves Loading to Prompt.
func Receive(s State, prediction int) State {
	if s.View != Loading {
		return s
	}
	p := prediction
	s.Prediction = &p
	s.View = Prompt
	return s
}

// Answer scores the user's reply and moves Prompt to FollowUp. pick chooses a
// suggestion index in [0, n) when one is needed. The returned entry is only
// meaningful when ok is true.
func Answer(s State, yes bool, rule Rule, pick func(n int) int) (State, answerlog.Entry, bool) {
	if s.View != Prompt || s.Prediction == nil {
		return s, answerlog.Entry{}, false
	}
	prediction := *s.Prediction
	correct := rule.Correct(prediction, yes)

	s.Total++
	if correct {
		s.Correct++
	}
	s.Accuracy = float64(s.Correct) / float64(s.Total) * 100
	s.History = append(slices.Clone(s.History), AccuracyRecord{
		ID:         uuid.New(),
		Attempt:    s.Total,
		Percentage: s.Accuracy,
	})

	s.Suggestion = nil
	s.AnotherShown = false
	s.ShowResults = false
	ate := rule.Ate(prediction, yes)
	switch {
	case prediction == predictor.NotHungry && ate:
		s.Message = MsgWalk
	case prediction == predictor.NotHungry:
		s.Message = MsgThanks
	case ate:
		s.Message = MsgMove
	default:
		s.Message = MsgSnack
		suggestion := Suggestions[pickIndex(pick, len(Suggestions))]
		s.Suggestion = &suggestion
	}
	s.View = FollowUp

	entry := answerlog.Entry{
		Timestamp:  time.Now().UTC(),
		Prediction: prediction,
		Yes:        yes,
		Correct:    correct,
	}
	return s, entry, true
}

// Continue leaves FollowUp and waits for the next prediction.
func Continue(s State) State {
	if s.View != FollowUp {
		return s
	}
	s.View = Loading
	s.Prediction = nil
	s.Message = ""
	s.Suggestion = nil
	s.ShowResults = false
	s.AnotherShown = false
	return s
}

// OpenResults shows the accuracy overlay.
func OpenResults(s State) State {
	if s.View == FollowUp {
		s.ShowResults = true
	}
	return s
}

// CloseResults hides the accuracy overlay.
func CloseResults(s State) State {
	s.ShowResults = false
	return s
}

// AnotherOption swaps the suggestion for a different one. It works once per follow-up.
func AnotherOption(s State, pick func(n int) int) State {
	if s.View != FollowUp || s.Suggestion == nil || s.AnotherShown {
		return s
	}
	others := make([]Suggestion, 0, len(Suggestions)-1)
	for _, candidate := range Suggestions {
		if candidate.Name != s.Suggestion.Name {
			others = append(others, candidate)
		}
	}
	if len(others) == 0 {
		return s
	}
	next := others[pickIndex(pick, len(others))]
	s.Suggestion = &next
	s.AnotherShown = true
	return s
}

// PredictionLabel renders the latest prediction for the badge.
func (s State) PredictionLabel() string {
	if s.Prediction == nil {
		return NoPredLabel
	}
	return predictor.Label(*s.Prediction)
}

// Percentages returns the accuracy history as a plain series.
func (s State) Percentages() []float64 {
	out := make([]float64, len(s.History))
	for i, rec := range s.History {
		out[i] = rec.Percentage
	}
	return out
}

func pickIndex(pick func(int) int, n int) int {
	if pick == nil || n <= 0 {
		return 0
	}
	i := pick(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}
