// Package mood holds the closed set of mood categories, the keyword
// classifier that derives a category from entry text, and the fixed
// presentation and coping metadata attached to each category.
package mood

// Category is one of the eight fixed mood labels. The string values are
// persisted and must not change.
type Category string

const (
	VeryHappy Category = "very-happy"
	Happy     Category = "happy"
	Neutral   Category = "neutral"
	Sad       Category = "sad"
	VerySad   Category = "very-sad"
	Angry     Category = "angry"
	Anxious   Category = "anxious"
	Excited   Category = "excited"
)

var all = []Category{VeryHappy, Happy, Neutral, Sad, VerySad, Angry, Anxious, Excited}

// All returns every category in canonical order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := labels[c]
	return ok
}

// Parse converts a persisted string into a Category.
func Parse(s string) (Category, bool) {
	c := Category(s)
	if !c.Valid() {
		return "", false
	}
	return c, true
}

func (c Category) String() string { return string(c) }

var labels = map[Category]string{
	VeryHappy: "Very Happy",
	Happy:     "Happy",
	Neutral:   "Neutral",
	Sad:       "Sad",
	VerySad:   "Very Sad",
	Angry:     "Angry",
	Anxious:   "Anxious",
	Excited:   "Excited",
}

var emojis = map[Category]string{
	VeryHappy: "😊",
	Happy:     "🙂",
	Neutral:   "😐",
	Sad:       "😔",
	VerySad:   "😢",
	Angry:     "😠",
	Anxious:   "😰",
	Excited:   "🤩",
}

var colors = map[Category]string{
	VeryHappy: "#10B981",
	Happy:     "#34D399",
	Neutral:   "#6B7280",
	Sad:       "#3B82F6",
	VerySad:   "#1D4ED8",
	Angry:     "#EF4444",
	Anxious:   "#F59E0B",
	Excited:   "#8B5CF6",
}

// placeholderColor is used for days without any entry.
const placeholderColor = "#9CA3AF"

// Label returns the display label, or "Neutral" for unknown values.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[Neutral]
}

// Emoji returns the glyph shown next to an entry or calendar day.
func (c Category) Emoji() string {
	if e, ok := emojis[c]; ok {
		return e
	}
	return emojis[Neutral]
}

// Color returns the hex color used for the category. Unknown values get
// the placeholder gray.
func (c Category) Color() string {
	if col, ok := colors[c]; ok {
		return col
	}
	return placeholderColor
}

// PlaceholderColor is the color rendered for a day with no entries.
func PlaceholderColor() string { return placeholderColor }

// Legend describes one category for calendar legends.
type Legend struct {
	Mood  Category `json:"mood"`
	Label string   `json:"label"`
	Emoji string   `json:"emoji"`
	Color string   `json:"color"`
}

// Legends returns presentation metadata for every category in canonical order.
func Legends() []Legend {
	out := make([]Legend, 0, len(all))
	for _, c := range all {
		out = append(out, Legend{Mood: c, Label: c.Label(), Emoji: c.Emoji(), Color: c.Color()})
	}
	return out
}
