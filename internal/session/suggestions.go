package session

// Suggestion is a snack offered when the user says they have not eaten.
type Suggestion struct {
	Name  string
	Emoji string
	Tip   string
}

// Suggestions is the fixed snack list.
var Suggestions = []Suggestion{
	{Name: "Avocado Toast", Emoji: "🥑", Tip: "Healthy fats & fiber"},
	{Name: "Greek Yogurt", Emoji: "🍓", Tip: "Protein & antioxidants"},
	{Name: "Chicken Salad", Emoji: "🥗", Tip: "Lean protein & greens"},
	{Name: "Oatmeal", Emoji: "🍌", Tip: "Slow carbs + potassium"},
}

func (s Suggestion) String() string {
	return s.Name + " " + s.Emoji
}
