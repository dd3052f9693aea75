package spam

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of a spam check. Computed fresh per submission and
// never persisted; callers store only the derived decision.
type Result struct {
	IsSpam     bool
	Score      int
	Reasons    []string
	Confidence string // "low", "medium" or "high"
}

// Moderation priority tiers, derived from the score alone.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var (
	urlPattern         = regexp.MustCompile(`https?://\S+|www\.\S+`)
	punctuationPattern = regexp.MustCompile(`[!?]{3,}`)
	allCapsPattern     = regexp.MustCompile(`[A-Z]{4,}`)
	currencyPattern    = regexp.MustCompile(`[€$£]\d|\d[€$£]`)
	nameDigitsPattern  = regexp.MustCompile(`\d{3}`)

	// Matched historically but not scored. Reserved; do not repurpose.
	phonePattern   = regexp.MustCompile(`\+?\d[\d\s/().-]{6,}\d`)
	percentPattern = regexp.MustCompile(`\d+\s?%`)
)

const (
	spamThreshold    = 50
	wordScore        = 10
	wordScoreCap     = 40
	maxWordReasons   = 3
	extraURLScore    = 15
	minContentLen    = 10
	maxContentLen    = 2000
	shortContentPen  = 20
	longContentPen   = 15
	nameTokenPen     = 15
	nameDigitsPen    = 10
	disposablePen    = 25
	legitimacyBonus  = 10
	repeatRunLen     = 5
	repeatRunPen     = 15
	punctuationPen   = 10
	allCapsPen       = 10
	currencyPen      = 10
)

// Checker scores free-text submissions against a fixed heuristic
// configuration. Pure computation, no I/O, safe for concurrent use.
type Checker struct {
	lists Lists
}

// NewChecker creates a checker from the given lists
func NewChecker(lists Lists) *Checker {
	return &Checker{lists: lists}
}

// NewDefaultChecker creates a checker with the built-in German/English lists
func NewDefaultChecker() *Checker {
	return NewChecker(DefaultLists())
}

// Check scores the content with optional author name and email. Scoring is
// additive; legitimacy counter-signals subtract and the final score is
// clamped to [0, 100]. Each contributing factor is reported as a reason;
// counter-signals adjust the score without adding reasons.
func (c *Checker) Check(content, authorName, authorEmail string) Result {
	score := 0
	var reasons []string

	lower := strings.ToLower(content)

	// 1. Lexical matching: diminishing contribution, capped. Only the first
	// few hits become reasons so the list stays readable.
	matches := 0
	for _, word := range c.lists.SpamWords {
		if strings.Contains(lower, word) {
			matches++
			if matches <= maxWordReasons {
				reasons = append(reasons, fmt.Sprintf("Verdächtiger Begriff: %q", word))
			}
		}
	}
	if matches > 0 {
		contribution := matches * wordScore
		if contribution > wordScoreCap {
			contribution = wordScoreCap
		}
		score += contribution
	}

	// 2. Pattern signals against the raw content. The first URL is free;
	// legitimate posts often carry one link.
	if urls := urlPattern.FindAllString(content, -1); len(urls) > 1 {
		score += (len(urls) - 1) * extraURLScore
		reasons = append(reasons, fmt.Sprintf("Mehrere Links im Text (%d)", len(urls)))
	}
	if punctuationPattern.MatchString(content) {
		score += punctuationPen
		reasons = append(reasons, "Wiederholte Ausrufe- oder Fragezeichen")
	}
	if allCapsPattern.MatchString(content) {
		score += allCapsPen
		reasons = append(reasons, "Wörter in Großbuchstaben")
	}
	if hasRepeatedRun(content, repeatRunLen) {
		score += repeatRunPen
		reasons = append(reasons, "Auffällige Zeichenwiederholung")
	}
	if currencyPattern.MatchString(content) {
		score += currencyPen
		reasons = append(reasons, "Geldbetrag im Text")
	}

	// 3. Length heuristics.
	length := utf8.RuneCountInString(content)
	if length < minContentLen {
		score += shortContentPen
		reasons = append(reasons, "Sehr kurzer Inhalt")
	} else if length > maxContentLen {
		score += longContentPen
		reasons = append(reasons, "Ungewöhnlich langer Inhalt")
	}

	// 4. Author name heuristics.
	if authorName != "" {
		lowerName := strings.ToLower(authorName)
		for _, token := range c.lists.SuspiciousNameTokens {
			if strings.Contains(lowerName, token) {
				score += nameTokenPen
				reasons = append(reasons, "Verdächtiger Autorenname")
				break
			}
		}
		if nameDigitsPattern.MatchString(authorName) {
			score += nameDigitsPen
			reasons = append(reasons, "Autorenname enthält Ziffernfolge")
		}
	}

	// 5. Email heuristics.
	if authorEmail != "" {
		if _, domain, found := strings.Cut(authorEmail, "@"); found {
			lowerDomain := strings.ToLower(domain)
			for _, provider := range c.lists.DisposableEmailDomains {
				if strings.Contains(lowerDomain, provider) {
					score += disposablePen
					reasons = append(reasons, "Wegwerf-E-Mail-Adresse")
					break
				}
			}
		}
	}

	// 6. Legitimacy counter-signals; can drive the score negative before
	// clamping.
	for _, pattern := range c.lists.LegitimacyPatterns {
		if pattern.MatchString(content) {
			score -= legitimacyBonus
		}
	}

	// 7. Clamp.
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		IsSpam:     score >= spamThreshold,
		Score:      score,
		Reasons:    reasons,
		Confidence: confidence(score, len(reasons)),
	}
}

// ShouldAutoApprove reports whether a submission may bypass human moderation.
// Conjunctive gate: a low score alone is not enough, the content must also be
// within a normal comment length band and show positive evidence of
// legitimacy. Everything else falls through to manual review.
func (c *Checker) ShouldAutoApprove(content, authorName string) bool {
	result := c.Check(content, authorName, "")
	if result.Score >= 15 {
		return false
	}
	length := utf8.RuneCountInString(content)
	if length < 20 || length > 1000 {
		return false
	}
	for _, pattern := range c.lists.LegitimacyPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return false
}

// ModerationPriority maps a score to a triage tier. Lower bounds are
// inclusive: exactly 70 is urgent, exactly 50 is high, exactly 30 is normal.
func ModerationPriority(score int) string {
	switch {
	case score >= 70:
		return PriorityUrgent
	case score >= 50:
		return PriorityHigh
	case score >= 30:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// confidence derives the tier from the final score and the reason count.
func confidence(score, reasonCount int) string {
	switch {
	case reasonCount >= 4 || score >= 70:
		return "high"
	case reasonCount >= 2 || score >= 40:
		return "medium"
	default:
		return "low"
	}
}

// hasRepeatedRun reports whether any rune repeats n or more times in a row.
// Spelled out because RE2 has no backreferences.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
