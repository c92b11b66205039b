// Package money handles the two faces of a currency field: a canonical
// decimal string (dot separator, at most 2 fraction digits) used for
// arithmetic and wire transmission, and a pt-BR display string (grouped
// thousands, comma decimal, R$ symbol) shown while the field is not being
// edited. An empty field maps to an empty canonical value, not zero.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// Canonical normalizes free-form input into the canonical decimal form:
// keeps digits and a single separator (comma or dot, stored as dot),
// truncates past two fraction digits. Idempotent on already-canonical
// strings. Empty input stays empty.
func Canonical(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, input)
	s := strings.ReplaceAll(cleaned, ",", ".")

	// Consolidate multiple separators into one.
	if parts := strings.SplitN(s, ".", 2); len(parts) == 2 {
		frac := strings.ReplaceAll(parts[1], ".", "")
		if len(frac) > 2 {
			frac = frac[:2]
		}
		s = parts[0] + "." + frac
	}
	return s
}

// Parse converts a canonical decimal string to a float64. Empty is zero.
func Parse(canonical string) float64 {
	if canonical == "" {
		return 0
	}
	v, err := strconv.ParseFloat(canonical, 64)
	if err != nil {
		return 0
	}
	return v
}

// Cents returns the integer-cents representation of a canonical string.
func Cents(canonical string) int64 {
	if canonical == "" {
		return 0
	}
	intPart, fracPart, _ := strings.Cut(canonical, ".")
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	i, _ := strconv.ParseInt(intPart+fracPart[:2], 10, 64)
	return i
}

// FromCents converts integer cents back to the canonical decimal form.
// Zero cents yields "0.00" so a field being typed into never goes blank.
func FromCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// AppendDigit applies one digit keystroke to a currency field: every
// keystroke enters more cents, shifting the decimal point left. This
// sidesteps the cursor-position bugs of masked numeric inputs.
func AppendDigit(canonical string, digit byte) string {
	if digit < '0' || digit > '9' {
		return canonical
	}
	return FromCents(Cents(canonical)*10 + int64(digit-'0'))
}

// Backspace undoes one AppendDigit: the last cent digit is dropped.
// Removing the final digit returns the field to empty, not "0.00".
func Backspace(canonical string) string {
	c := Cents(canonical) / 10
	if c == 0 {
		return ""
	}
	return FromCents(c)
}

// DisplayBRL renders a canonical value as pt-BR currency for an unfocused
// field. Empty canonical renders empty.
func DisplayBRL(canonical string) string {
	if canonical == "" {
		return ""
	}
	return "R$ " + FormatNumber(Parse(canonical))
}

// FormatNumber renders v with pt-BR grouping and comma decimal, two
// fraction digits. Used in briefs, CSV rows and share texts.
func FormatNumber(v float64) string {
	return ptBR.Sprintf("%.2f", v)
}
