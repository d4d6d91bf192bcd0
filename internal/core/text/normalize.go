// Package text cleans transcripts before they are put into a prompt.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize collapses every whitespace run to a single space and trims both
// ends. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeOCR is the stricter variant for OCR output. On top of Normalize it
// applies NFKC, drops non-printable runes and folds visually confusable
// characters.
//
// The folding is a lossy heuristic and only fires in narrow contexts:
//   - '|' becomes 'I' when both neighbours are letters ("W|LLIAM").
//   - 'O', 'o' and 'l' become digits inside a token that is otherwise numeric
//     ("1O.5O" -> "10.50", "(2O24)" -> "(2024)"). Tokens with letters outside
//     that set, or letters in their prefix or suffix, are left alone, so names
//     and identifiers such as "Oslo" or "CZ12O" survive unchanged.
//
// Like Normalize it is idempotent.
func NormalizeOCR(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, s)

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = foldNumeric(foldPipes(tok))
	}
	return strings.Join(tokens, " ")
}

func foldPipes(tok string) string {
	if !strings.ContainsRune(tok, '|') {
		return tok
	}
	rs := []rune(tok)
	out := make([]rune, len(rs))
	copy(out, rs)
	for i, r := range rs {
		if r != '|' || i == 0 || i == len(rs)-1 {
			continue
		}
		if unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]) {
			out[i] = 'I'
		}
	}
	return string(out)
}

func isConfusable(r rune) bool {
	return r == 'O' || r == 'o' || r == 'l'
}

func isNumericSep(r rune) bool {
	switch r {
	case '.', ',', '-', '/', ':':
		return true
	}
	return false
}

func foldNumeric(tok string) string {
	rs := []rune(tok)
	start, end := -1, -1
	for i, r := range rs {
		if unicode.IsDigit(r) || isConfusable(r) {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	if start < 0 {
		return tok
	}

	// prefix and suffix may hold punctuation or symbols only
	for _, r := range rs[:start] {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return tok
		}
	}
	for _, r := range rs[end+1:] {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return tok
		}
	}

	digits, confusables := 0, 0
	for _, r := range rs[start : end+1] {
		switch {
		case unicode.IsDigit(r):
			digits++
		case isConfusable(r):
			confusables++
		case isNumericSep(r):
		default:
			return tok
		}
	}
	if digits == 0 || confusables == 0 {
		return tok
	}

	for i := start; i <= end; i++ {
		switch rs[i] {
		case 'O', 'o':
			rs[i] = '0'
		case 'l':
			rs[i] = '1'
		}
	}
	return string(rs)
}
