package spam

import "regexp"

// Lists is the immutable heuristic configuration a Checker is built from.
// Keeping the vocabularies here, injected at construction time, lets them be
// extended or swapped per locale without touching the scoring code.
type Lists struct {
	// SpamWords are matched by lowercase substring containment against the
	// content. German and English scam vocabulary plus URL-shortener hosts.
	SpamWords []string
	// SuspiciousNameTokens are matched by substring against the lowercased
	// author name.
	SuspiciousNameTokens []string
	// DisposableEmailDomains are matched by substring against the domain
	// portion of the author email.
	DisposableEmailDomains []string
	// LegitimacyPatterns are positive counter-signals; each category that
	// matches anywhere in the content subtracts from the score.
	LegitimacyPatterns []*regexp.Regexp
}

// DefaultLists returns the built-in German/English heuristic configuration.
func DefaultLists() Lists {
	return Lists{
		SpamWords: []string{
			"viagra", "cialis", "casino", "poker", "jackpot", "lotto",
			"lottery", "gewinnspiel", "sofortkredit", "kredit ohne schufa",
			"schnell geld verdienen", "geld verdienen", "reich werden",
			"get rich", "make money fast", "free money", "money",
			"click here", "klicken sie hier", "jetzt kaufen", "buy now",
			"bitcoin profit", "krypto gewinn", "pump and dump",
			"garantierter gewinn", "guaranteed profit", "jetzt investieren",
			"potenzmittel", "abnehmen ohne sport", "wunderdiät",
			"bit.ly", "tinyurl", "goo.gl", "ow.ly", "cutt.ly", "t.cn",
		},
		SuspiciousNameTokens: []string{
			"admin", "test", "user", "guest", "anonymous", "xxx", "aaa",
		},
		DisposableEmailDomains: []string{
			"mailinator", "guerrillamail", "10minutemail", "trashmail",
			"wegwerfmail", "tempmail", "throwaway", "yopmail", "sharklasers",
		},
		LegitimacyPatterns: []*regexp.Regexp{
			// Formal German salutations and closings.
			regexp.MustCompile(`(?i)(sehr geehrte|guten tag|mit freundlichen grüßen|freundliche grüße|vielen dank|beste grüße)`),
			// Professional business vocabulary.
			regexp.MustCompile(`(?i)(unternehmen|firma|mitarbeiter|projekt|anbieter|lösung|erfahrung|implementierung|einsatz|übersicht|vergleich)`),
			// DSGVO / compliance vocabulary.
			regexp.MustCompile(`(?i)(dsgvo|gdpr|datenschutz|compliance|auftragsverarbeitung|konform|rechtskonform|avv)`),
			// AI / LLM domain vocabulary.
			regexp.MustCompile(`(?i)(künstliche intelligenz|sprachmodell|\bllm\b|\bki\b|chatgpt|prompt|modell|hosting)`),
		},
	}
}
