package services

import (
	"strings"
	"unicode"
)

// Threat vocabulary. Matched as whole words after normalization.
var baseThreatWords = []string{
	"rape",
	"kill",
	"murder",
	"assault",
	"shoot",
	"stab",
	"strangle",
	"threatening",
	"revenge",
	"retaliate",
	"slaughter",
	"massacre",
	"annihilate",
}

// Self-harm vocabulary. These are routed to support, never rejected.
var baseSelfHarmWords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"take my life",
	"end it all",
	"self harm",
	"cut myself",
	"hurt myself",
	"harm myself",
	"want to die",
	"wish I was dead",
	"not worth living",
	"better off dead",
	"end myself",
	"unalive",
}

// SupportResources accompany content that mentions self-harm.
var SupportResources = []string{
	"If you are in immediate danger, call your local emergency number.",
	"988 Suicide & Crisis Lifeline (US): call or text 988.",
	"Find international helplines at https://findahelpline.com.",
	"You can book a session with a counselor from the Counselors page.",
}

var obfuscations = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"+", "t",
	"а", "a", // Cyrillic
	"е", "e",
	"і", "i",
	"о", "o",
	"р", "p",
)

// ScreenResult is the outcome of screening one piece of user content.
type ScreenResult struct {
	Threat   bool
	SelfHarm bool
	Matched  []string
}

// ContentScreen detects threatening and self-harm language in forum content.
type ContentScreen struct {
	threat   []string
	selfHarm []string
}

// NewContentScreen builds a screen from the base vocabularies plus extra terms.
func NewContentScreen(extraThreat, extraSelfHarm []string) *ContentScreen {
	s := &ContentScreen{}
	for _, w := range append(append([]string{}, baseThreatWords...), extraThreat...) {
		if n := normalizeText(w); n != "" {
			s.threat = append(s.threat, n)
		}
	}
	for _, w := range append(append([]string{}, baseSelfHarmWords...), extraSelfHarm...) {
		if n := normalizeText(w); n != "" {
			s.selfHarm = append(s.selfHarm, n)
		}
	}
	return s
}

// Screen checks the texts together. Self-harm phrases are removed before the
// threat pass so "I want to kill myself" is not treated as a threat.
func (s *ContentScreen) Screen(texts ...string) ScreenResult {
	var res ScreenResult
	padded := " " + normalizeText(strings.Join(texts, " ")) + " "

	for _, phrase := range s.selfHarm {
		needle := " " + phrase + " "
		if strings.Contains(padded, needle) {
			res.SelfHarm = true
			res.Matched = append(res.Matched, phrase)
			padded = strings.ReplaceAll(padded, needle, " ")
		}
	}
	for _, word := range s.threat {
		if strings.Contains(padded, " "+word+" ") {
			res.Threat = true
			res.Matched = append(res.Matched, word)
		}
	}
	return res
}

// normalizeText lower-cases, undoes common character substitutions, turns
// every non-letter into a single space and collapses repeated letters, so
// "K!!LLL  m y" becomes "kil m y".
func normalizeText(text string) string {
	cleaned := obfuscations.Replace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(cleaned))
	var last rune
	lastSpace := true
	for _, r := range cleaned {
		if !unicode.IsLetter(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			last = 0
			continue
		}
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}
