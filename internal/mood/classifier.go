package mood

import "strings"

// Keyword sets are disjoint. A keyword counts once per text regardless of
// how often it occurs.
var (
	happyWords   = []string{"happy", "joy", "excited", "great", "wonderful", "amazing", "love", "fantastic"}
	sadWords     = []string{"sad", "depressed", "down", "upset", "crying", "hurt", "pain"}
	anxiousWords = []string{"anxious", "worried", "nervous", "stress", "panic", "overwhelmed"}
	angryWords   = []string{"angry", "mad", "furious", "annoyed", "frustrated", "irritated"}
)

// Scores holds per-category keyword hits for a text.
type Scores struct {
	Happy   int `json:"happy"`
	Sad     int `json:"sad"`
	Anxious int `json:"anxious"`
	Angry   int `json:"angry"`
}

// Score counts, per category, how many of its keywords appear in text as
// case-insensitive substrings.
func Score(text string) Scores {
	lower := strings.ToLower(text)
	return Scores{
		Happy:   countHits(lower, happyWords),
		Sad:     countHits(lower, sadWords),
		Anxious: countHits(lower, anxiousWords),
		Angry:   countHits(lower, angryWords),
	}
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

// Classify maps entry text to a mood. Equal counts resolve in the fixed
// order happy, sad, anxious, angry. Empty text is neutral.
func Classify(text string) Category {
	if text == "" {
		return Neutral
	}
	return Score(text).Category()
}

// Category applies the selection policy to a set of scores.
func (s Scores) Category() Category {
	if s.Happy > 0 && s.Happy >= max(s.Sad, s.Anxious, s.Angry) {
		if s.Happy > 2 {
			return VeryHappy
		}
		return Happy
	}
	if s.Sad > 0 && s.Sad >= max(s.Anxious, s.Angry) {
		if s.Sad > 2 {
			return VerySad
		}
		return Sad
	}
	if s.Anxious > 0 && s.Anxious >= s.Angry {
		return Anxious
	}
	if s.Angry > 0 {
		return Angry
	}
	return Neutral
}

// ClassifyAny accepts loosely typed input (decoded JSON, form values) and
// returns Neutral for anything that is not text.
func ClassifyAny(v any) Category {
	switch t := v.(type) {
	case string:
		return Classify(t)
	case *string:
		if t == nil {
			return Neutral
		}
		return Classify(*t)
	case []byte:
		return Classify(string(t))
	default:
		return Neutral
	}
}
