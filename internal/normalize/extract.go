package normalize

import (
	"regexp"
	"strings"
)

// The extraction functions below are "first pattern in a fixed list that
// matches wins". Pattern order is an observable contract: for ambiguous
// text, reordering changes the output. Do not reorder.

// deadlinePatterns are tried in priority order: explicit labels first,
// then a generic numeric date token, then a month-name date.
var deadlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)deadline[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)apply by[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)applications? closes?[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)due date[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)expires?[:\s]+([^.\n]+)`),
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`),
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)location[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)based in[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)country[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\b(United States|United Kingdom|Canada|Australia|Germany|France|Netherlands|Sweden|Switzerland|Japan|Singapore|USA|UK)\b`),
}

var requirementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:minimum|at least)\s+(?:gpa|grade)[^.\n]*`),
	regexp.MustCompile(`(?i)\bgpa\s+(?:of\s+)?\d\.\d+[^.\n]*`),
	regexp.MustCompile(`(?i)\b(?:bachelor|master|phd|doctorate)(?:'s)?\s+degree[^.\n]*`),
	regexp.MustCompile(`(?i)\benrolled\s+(?:in|at)[^.\n]*`),
	regexp.MustCompile(`(?i)\bmust\s+be[^.\n]*`),
	regexp.MustCompile(`(?i)\beligib(?:le|ility)[^.\n]*`),
	regexp.MustCompile(`(?i)\brequire(?:d|s|ments?)?[:\s][^.\n]*`),
	regexp.MustCompile(`(?i)\bexperience\s+(?:in|with)[^.\n]*`),
	regexp.MustCompile(`(?i)\bfluen(?:t|cy)\s+in[^.\n]*`),
	regexp.MustCompile(`(?i)\bcitizens?(?:hip)?[^.\n]*`),
}

var benefitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfully?[-\s]funded[^.\n]*`),
	regexp.MustCompile(`(?i)\btuition[^.\n]*`),
	regexp.MustCompile(`(?i)\bstipend[^.\n]*`),
	regexp.MustCompile(`(?i)\b(?:scholarship|award)\s+(?:covers|includes)[^.\n]*`),
	regexp.MustCompile(`(?i)\bmonthly\s+allowance[^.\n]*`),
	regexp.MustCompile(`(?i)\btravel\s+(?:costs?|expenses|allowance)[^.\n]*`),
	regexp.MustCompile(`(?i)\bhealth\s+insurance[^.\n]*`),
	regexp.MustCompile(`(?i)\baccommodation[^.\n]*`),
	regexp.MustCompile(`(?i)\bmentorship[^.\n]*`),
	regexp.MustCompile(`(?i)\bcertificate[^.\n]*`),
}

// Difficulty keyword classes, strict priority: advanced beats intermediate
// beats beginner. Word boundaries keep "undergraduate" from matching the
// intermediate "graduate" keyword.
var (
	advancedKeywords     = regexp.MustCompile(`(?i)\b(?:phd|doctorate|postdoc)`)
	intermediateKeywords = regexp.MustCompile(`(?i)\b(?:master|graduate|experienced)`)
	beginnerKeywords     = regexp.MustCompile(`(?i)\b(?:undergraduate|bachelor|beginner)`)
)

const maxExtracted = 5

// firstMatch returns the first pattern's capture group when present,
// otherwise the whole match, trimmed. Empty string when nothing matches.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// extractDeadline pulls an application deadline out of free text.
func extractDeadline(text string) string {
	if d := firstMatch(deadlinePatterns, text); d != "" {
		return d
	}
	return "Not specified"
}

// extractLocation pulls a location out of free text.
func extractLocation(text string) string {
	if l := firstMatch(locationPatterns, text); l != "" {
		return l
	}
	return "Various"
}

// collectMatches scans the pattern list in order and collects up to
// maxExtracted first-occurrence matches. Duplicates across overlapping
// patterns are not suppressed; two patterns hitting the same sentence both
// contribute. That mirrors the long-standing ingestion behavior and
// downstream consumers tolerate it.
func collectMatches(patterns []*regexp.Regexp, text string) []string {
	var out []string
	for _, p := range patterns {
		if len(out) >= maxExtracted {
			break
		}
		if m := p.FindString(text); m != "" {
			out = append(out, strings.TrimSpace(m))
		}
	}
	return out
}

func extractRequirements(text string) []string {
	return collectMatches(requirementPatterns, text)
}

func extractBenefits(text string) []string {
	return collectMatches(benefitPatterns, text)
}

// determineDifficulty classifies text into a difficulty level. Unmatched
// or empty text is "Medium".
func determineDifficulty(text string) string {
	switch {
	case advancedKeywords.MatchString(text):
		return "Advanced"
	case intermediateKeywords.MatchString(text):
		return "Intermediate"
	case beginnerKeywords.MatchString(text):
		return "Beginner"
	default:
		return "Medium"
	}
}
