package inquiry

import (
	"regexp"
	"strings"
	"unicode"
)

// SpamThreshold is the score from which an inquiry is filed as spam.
const SpamThreshold = 70

const (
	honeypotScore   = 100
	urlScore        = 15
	maxURLScore     = 45
	keywordScore    = 20
	maxKeywordScore = 40
	shoutingScore   = 15
	repeatScore     = 10
	disposableScore = 25

	repeatRun = 10
)

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

var spamKeywords = []string{
	"viagra", "cialis", "casino", "crypto", "bitcoin", "forex", "loan", "backlink",
	"seo services", "porn", "lottery", "prêt rapide", "investissement garanti",
}

var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"temp-mail.org":     true,
	"yopmail.com":       true,
	"yopmail.fr":        true,
	"trashmail.com":     true,
	"sharklasers.com":   true,
	"getnada.com":       true,
	"dispostable.com":   true,
	"throwawaymail.com": true,
}

type SpamInput struct {
	Email    string
	Subject  string
	Message  string
	Honeypot string
}

// ScoreSpam returns a score in [0, 100].
func ScoreSpam(in SpamInput) int {
	score := 0
	if strings.TrimSpace(in.Honeypot) != "" {
		score += honeypotScore
	}

	text := in.Subject + "\n" + in.Message
	score += min(len(urlPattern.FindAllString(text, -1))*urlScore, maxURLScore)

	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	score += min(hits*keywordScore, maxKeywordScore)

	if mostlyUpperCase(in.Message) {
		score += shoutingScore
	}
	if hasRepeatedRun(in.Message, repeatRun) {
		score += repeatScore
	}
	if IsDisposableEmail(in.Email) {
		score += disposableScore
	}
	return min(score, 100)
}

func IsSpam(score int) bool {
	return score >= SpamThreshold
}

func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return disposableDomains[strings.ToLower(strings.TrimSpace(email[at+1:]))]
}

// mostlyUpperCase reports whether more than half of the letters are upper case.
func mostlyUpperCase(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return letters > 0 && upper*2 > letters
}

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
