// Package brdoc validates and masks Brazilian registry documents: CNPJ
// (company tax id) and CNAE (economic activity classification code).
// All functions are pure; no external calls.
package brdoc

import (
	"strings"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// knownInvalidCNPJs are the repeated-digit sequences that pass the checksum
// but are rejected by the registry.
var knownInvalidCNPJs = map[string]bool{
	"00000000000000": true,
	"11111111111111": true,
	"22222222222222": true,
	"33333333333333": true,
	"44444444444444": true,
	"55555555555555": true,
	"66666666666666": true,
	"77777777777777": true,
	"88888888888888": true,
	"99999999999999": true,
}

// StripDigits removes every non-digit rune from s.
func StripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// checkDigit computes one CNPJ verification digit over digits using the
// standard modulo-11 weighted sum: weights start at len-7 and count down,
// resetting to 9 after reaching 2.
func checkDigit(digits string) int {
	pos := len(digits) - 7
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * pos
		pos--
		if pos < 2 {
			pos = 9
		}
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

// ValidateCNPJ checks a CNPJ for format and checksum. Non-digits are
// stripped first. Returns nil when the document is valid.
func ValidateCNPJ(raw string) error {
	cnpj := StripDigits(raw)

	if cnpj == "" {
		return &domain.ErrFormat{Field: "cnpj", Message: "O CNPJ não pode estar vazio."}
	}
	if len(cnpj) != 14 {
		return &domain.ErrFormat{Field: "cnpj", Message: "CNPJ deve ter 14 dígitos."}
	}
	if knownInvalidCNPJs[cnpj] {
		return &domain.ErrFormat{Field: "cnpj", Message: "CNPJ inválido."}
	}

	if checkDigit(cnpj[:12]) != int(cnpj[12]-'0') {
		return &domain.ErrChecksum{Field: "cnpj"}
	}
	if checkDigit(cnpj[:13]) != int(cnpj[13]-'0') {
		return &domain.ErrChecksum{Field: "cnpj"}
	}
	return nil
}

// ValidateCNAE checks that a CNAE has exactly 7 digits after stripping
// punctuation. Pure format check; no checksum, no registry call.
func ValidateCNAE(raw string) error {
	cnae := StripDigits(raw)

	if cnae == "" {
		return &domain.ErrFormat{Field: "cnae", Message: "O CNAE não pode estar vazio."}
	}
	if len(cnae) != 7 {
		return &domain.ErrFormat{Field: "cnae", Message: "CNAE inválido. Formato correto: 0000-0/00"}
	}
	return nil
}

// MaskCNPJ progressively formats input as NN.NNN.NNN/NNNN-NN, dropping
// non-digits first and truncating past 14 digits. Safe to call on every
// keystroke.
func MaskCNPJ(input string) string {
	d := StripDigits(input)
	if len(d) > 14 {
		d = d[:14]
	}

	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 2, 5:
			b.WriteByte('.')
		case 8:
			b.WriteByte('/')
		case 12:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// MaskCNAE progressively formats input as NNNN-N/NN, same
// accumulate-and-truncate approach as MaskCNPJ.
func MaskCNAE(input string) string {
	d := StripDigits(input)
	if len(d) > 7 {
		d = d[:7]
	}

	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 4:
			b.WriteByte('-')
		case 5:
			b.WriteByte('/')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}
