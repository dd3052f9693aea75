package spam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const legitComment = "Sehr geehrte Damen und Herren, vielen Dank für die ausführliche Übersicht zu den verschiedenen Anbietern."

func TestCheck_ObviousSpam(t *testing.T) {
	c := NewDefaultChecker()

	result := c.Check("CLICK HERE to win FREE MONEY!!! Visit bit.ly/scam now!!!", "", "")

	assert.True(t, result.IsSpam)
	assert.Greater(t, result.Score, 50)
	assert.Equal(t, "high", result.Confidence)
	assert.NotEmpty(t, result.Reasons)
}

func TestCheck_LegitimateGermanComment(t *testing.T) {
	c := NewDefaultChecker()

	result := c.Check(legitComment, "Maria Schmidt", "maria.schmidt@firma.de")

	assert.False(t, result.IsSpam)
	assert.Less(t, result.Score, 50)
	assert.Empty(t, result.Reasons)
}

func TestCheck_WordScoreCap(t *testing.T) {
	c := NewDefaultChecker()

	// Six distinct list hits, contribution capped at 40.
	result := c.Check("viagra casino poker jackpot lotto lottery", "", "")

	assert.Equal(t, 40, result.Score)
	assert.False(t, result.IsSpam)
	// Only the first three matches become reasons.
	assert.Len(t, result.Reasons, 3)
	assert.Equal(t, "medium", result.Confidence)
}

func TestCheck_SpamWordsMonotone(t *testing.T) {
	c := NewDefaultChecker()

	one := c.Check("Dieser Text enthält viagra irgendwo.", "", "")
	two := c.Check("Dieser Text enthält viagra und casino irgendwo.", "", "")

	assert.GreaterOrEqual(t, two.Score, one.Score)
}

func TestCheck_LegitimacySignalsSubtract(t *testing.T) {
	c := NewDefaultChecker()

	without := c.Check("viagra casino poker jackpot lotto!!!", "", "")
	with := c.Check("viagra casino poker jackpot lotto!!! Mit freundlichen Grüßen", "", "")

	assert.Equal(t, 50, without.Score)
	assert.True(t, without.IsSpam)
	assert.Equal(t, 40, with.Score)
	assert.False(t, with.IsSpam)
	assert.LessOrEqual(t, with.Score, without.Score)
}

func TestCheck_MultipleURLs(t *testing.T) {
	c := NewDefaultChecker()

	one := c.Check("Mehr dazu unter https://example.com im Detail beschrieben.", "", "")
	assert.Equal(t, 0, one.Score)

	two := c.Check("Mehr dazu unter https://example.com sowie https://example.org beschrieben.", "", "")
	assert.Equal(t, 15, two.Score)

	three := c.Check("Siehe https://a.example sowie https://b.example sowie https://c.example dazu.", "", "")
	assert.Equal(t, 30, three.Score)
}

func TestCheck_PatternSignals(t *testing.T) {
	c := NewDefaultChecker()

	tests := []struct {
		name    string
		content string
		score   int
	}{
		{"repeated punctuation", "Na sowas?!?! Das glaube ich nicht", 10},
		{"all caps word", "Das ist WIRKLICH wichtig für alle hier", 10},
		{"repeated character run", "Haaaaallo zusammen, was sagt ihr dazu", 15},
		{"currency amount", "Das kostet nur 99€ pro Monat hier", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Check(tt.content, "", "")
			assert.Equal(t, tt.score, result.Score)
		})
	}
}

func TestCheck_LengthHeuristics(t *testing.T) {
	c := NewDefaultChecker()

	short := c.Check("Hi", "", "")
	assert.Equal(t, 20, short.Score)

	long := c.Check(strings.Repeat("ab ", 700), "", "")
	assert.Equal(t, 15, long.Score)
}

func TestCheck_AuthorNameHeuristics(t *testing.T) {
	c := NewDefaultChecker()

	result := c.Check("Ein ganz gewöhnlicher Beitrag ohne Auffälligkeiten.", "testuser123", "")

	// Suspicious token +15, digit run +10. Only one token reason even though
	// both "test" and "user" match.
	assert.Equal(t, 25, result.Score)
	assert.Len(t, result.Reasons, 2)
}

func TestCheck_DisposableEmail(t *testing.T) {
	c := NewDefaultChecker()

	result := c.Check("Ein ganz gewöhnlicher Beitrag ohne Auffälligkeiten.", "", "foo@mailinator.com")

	assert.Equal(t, 25, result.Score)
	assert.Contains(t, result.Reasons, "Wegwerf-E-Mail-Adresse")
}

func TestCheck_ScoreClampedTo100(t *testing.T) {
	c := NewDefaultChecker()

	content := "CLICK HERE free money casino viagra bit.ly https://a.de https://b.de https://c.de https://d.de !!!!! €50 aaaaa"
	result := c.Check(content, "", "")

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.IsSpam)
	assert.Equal(t, "high", result.Confidence)
}

func TestCheck_NeverNegative(t *testing.T) {
	c := NewDefaultChecker()

	// All four legitimacy categories, no penalties.
	content := "Sehr geehrte Damen und Herren, unser Unternehmen prüft DSGVO-konforme Sprachmodell-Anbieter."
	result := c.Check(content, "", "")

	assert.Equal(t, 0, result.Score)
	assert.False(t, result.IsSpam)
}

func TestShouldAutoApprove(t *testing.T) {
	c := NewDefaultChecker()

	tests := []struct {
		name       string
		content    string
		authorName string
		want       bool
	}{
		{"too short", "OK", "User", false},
		{"legit business comment", legitComment, "Maria Schmidt", true},
		{"low score but no positive evidence", "Das ist ein ganz normaler Satz ohne besondere Merkmale.", "Hans Meier", false},
		{"legit evidence but spammy score", "Sehr geehrte Damen und Herren, viagra casino poker jackpot!!!", "Maria Schmidt", false},
		{"too long", strings.Repeat("Unser Unternehmen nutzt das Produkt. ", 40), "Maria Schmidt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ShouldAutoApprove(tt.content, tt.authorName))
		})
	}
}

func TestModerationPriority(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, PriorityUrgent},
		{70, PriorityUrgent},
		{69, PriorityHigh},
		{55, PriorityHigh},
		{50, PriorityHigh},
		{49, PriorityNormal},
		{35, PriorityNormal},
		{30, PriorityNormal},
		{29, PriorityLow},
		{10, PriorityLow},
		{0, PriorityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ModerationPriority(tt.score), "score %d", tt.score)
	}
}

func TestHasRepeatedRun(t *testing.T) {
	assert.True(t, hasRepeatedRun("aaaaa", 5))
	assert.True(t, hasRepeatedRun("xaaaaax", 5))
	assert.False(t, hasRepeatedRun("aaaa", 5))
	assert.False(t, hasRepeatedRun("ababab", 5))
	assert.False(t, hasRepeatedRun("", 5))
}
