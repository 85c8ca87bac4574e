package occupation

// Language pairs a short corpus tag with the code the translation service expects.
type Language struct {
	Tag  string
	Code string
	Name string
}

var (
	English = Language{Tag: "en", Code: "eng_Latn", Name: "English"}
	Hindi   = Language{Tag: "hi", Code: "hin_Deva", Name: "Hindi"}
	Tamil   = Language{Tag: "ta", Code: "tam_Taml", Name: "Tamil"}
)

var languages = []Language{English, Hindi, Tamil}

// LookupLanguage finds a supported language by tag or service code.
func LookupLanguage(s string) (Language, bool) {
	for _, l := range languages {
		if l.Tag == s || l.Code == s {
			return l, true
		}
	}
	return Language{}, false
}
