package signals

import (
	"strings"
	"unicode"
)

const (
	minVowelRatio        = 0.15
	maxVowelRatio        = 0.80
	vowelRatioMinLetters = 4
	maxConsonantRun      = 4
	maxRepeatRun         = 3
	keyboardRunLength    = 4
	uniqueMinLetters     = 10
	maxUniqueRatio       = 0.95
)

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm", "1234567890"}

// NameShape reports whether a submitted name looks typed by a person. The
// returned reason names the first failed rule. Separators (space, hyphen,
// apostrophe, period) are dropped and the remaining letters and digits are
// checked as one stream; the uniqueness rule applies only to names without
// separators.
func NameShape(name string) (plausible bool, reason string) {
	stream, letterCount, separated := letterStream(name)
	if letterCount == 0 {
		return false, "name_no_letters"
	}

	switch {
	case hasKeyboardRun(stream):
		return false, "name_keyboard_sequence"
	case longestRepeat(stream) > maxRepeatRun:
		return false, "name_repetition"
	case !vowelRatioOK(stream):
		return false, "name_vowel_ratio"
	case longestRun(stream, isLatinConsonant) > maxConsonantRun:
		return false, "name_consonant_run"
	case !separated && letterCount >= uniqueMinLetters && uniqueRatio(stream) > maxUniqueRatio:
		return false, "name_unique_ratio"
	}
	return true, ""
}

// letterStream lowercases name keeping letters and digits. separated reports
// whether a word separator appeared after the first kept rune.
func letterStream(name string) (stream []rune, letters int, separated bool) {
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r):
			stream = append(stream, unicode.ToLower(r))
			letters++
		case unicode.IsDigit(r):
			stream = append(stream, r)
		case unicode.IsSpace(r) || r == '-' || r == '\'' || r == '’' || r == '.':
			if len(stream) > 0 {
				separated = true
			}
		}
	}
	return stream, letters, separated
}

func isLatin(r rune) bool { return r >= 'a' && r <= 'z' }

// y counts as a vowel: Lynn, Glynn.
func isLatinVowel(r rune) bool { return strings.ContainsRune("aeiouy", r) }

func isLatinConsonant(r rune) bool { return isLatin(r) && !isLatinVowel(r) }

// vowelRatioOK only considers a-z so scripts without this notion of vowels
// are never penalised.
func vowelRatioOK(letters []rune) bool {
	latin, vowels := 0, 0
	for _, r := range letters {
		if !isLatin(r) {
			continue
		}
		latin++
		if isLatinVowel(r) {
			vowels++
		}
	}
	if latin < vowelRatioMinLetters {
		return true
	}
	ratio := float64(vowels) / float64(latin)
	return ratio >= minVowelRatio && ratio <= maxVowelRatio
}

func longestRun(letters []rune, match func(rune) bool) int {
	longest, current := 0, 0
	for _, r := range letters {
		if match(r) {
			current++
			longest = max(longest, current)
			continue
		}
		current = 0
	}
	return longest
}

func longestRepeat(letters []rune) int {
	longest, current := 0, 0
	for i, r := range letters {
		if i > 0 && letters[i-1] == r {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
	}
	return longest
}

func hasKeyboardRun(letters []rune) bool {
	s := string(letters)
	for _, row := range keyboardRows {
		for _, line := range []string{row, reverse(row)} {
			for i := 0; i+keyboardRunLength <= len(line); i++ {
				if strings.Contains(s, line[i:i+keyboardRunLength]) {
					return true
				}
			}
		}
	}
	return false
}

func uniqueRatio(letters []rune) float64 {
	seen := make(map[rune]struct{}, len(letters))
	for _, r := range letters {
		seen[r] = struct{}{}
	}
	return float64(len(seen)) / float64(len(letters))
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
