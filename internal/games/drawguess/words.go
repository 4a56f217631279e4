package drawguess

// Language selects which word list a lobby draws its secret words
// from. The source carried two incompatible draw-and-guess managers,
// one language-aware and one not; this package adopts the
// language-aware variant.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

var wordLists = map[Language][]string{
	LanguageEnglish: {
		"pizza", "guitar", "elephant", "rainbow", "castle",
		"bicycle", "dragon", "volcano", "umbrella", "telescope",
		"penguin", "sandwich", "rocket", "lighthouse", "butterfly",
	},
	LanguageTurkish: {
		"kahve", "gitar", "fil", "gokkusagi", "sato",
		"bisiklet", "ejderha", "yanardag", "semsiye", "teleskop",
		"penguen", "sandvic", "roket", "deniz feneri", "kelebek",
	},
}

// WordsFor returns the word list for lang, defaulting to English for
// an unrecognized or empty language code.
func WordsFor(lang Language) []string {
	if words, ok := wordLists[lang]; ok {
		return words
	}
	return wordLists[LanguageEnglish]
}
