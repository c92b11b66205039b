// Package export renders a finished regime comparison in shareable
// formats: semicolon CSV for spreadsheets, a WhatsApp message and a PDF
// report.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/money"
)

// bom makes Excel open the file as UTF-8 instead of the locale codepage.
const bom = "\ufeff"

// CSV renders the comparison as a two-section semicolon-delimited file:
// a one-row company summary, a blank line, then one row per regime.
func CSV(inputs *domain.FinancialSnapshot, result *domain.TaxAnalysis) []byte {
	var b strings.Builder
	b.WriteString(bom)

	headers := []string{"Empresa", "Ano Referencia", "Faturamento", "Regime Recomendado", "Economia Estimada"}
	summary := []string{
		companyName(inputs, "Empresa"),
		inputs.AnoReferencia,
		inputs.Faturamento,
		result.Recomendacao.MelhorRegime,
		money.FormatNumber(result.Recomendacao.EconomiaEstimada),
	}
	b.WriteString(strings.Join(headers, ";") + "\n")
	b.WriteString(strings.Join(summary, ";") + "\n\n")

	detailHeaders := []string{"Regime", "Imposto Estimado (R$)", "Aliquota Efetiva (%)", "Detalhes"}
	b.WriteString(strings.Join(detailHeaders, ";") + "\n")
	for _, item := range result.Analise {
		row := []string{
			item.Regime,
			// No grouping so spreadsheets parse the column as numeric.
			plainDecimal(item.ImpostoEstimado),
			plainDecimal(item.AliquotaEfetiva * 100),
			quoteField(item.Detalhes),
		}
		b.WriteString(strings.Join(row, ";") + "\n")
	}

	return []byte(b.String())
}

// CSVFilename builds the suggested download name for the CSV export.
func CSVFilename(inputs *domain.FinancialSnapshot) string {
	return fmt.Sprintf("planejamento_%s_%s.csv", inputs.AnoReferencia, companyName(inputs, "empresa"))
}

// PDFFilename builds the suggested download name for the PDF report.
func PDFFilename(inputs *domain.FinancialSnapshot) string {
	return fmt.Sprintf("analise-tributaria-%s-%s.pdf", companyName(inputs, "empresa"), inputs.AnoReferencia)
}

func companyName(inputs *domain.FinancialSnapshot, fallback string) string {
	if inputs.NomeEmpresa == "" {
		return fallback
	}
	return inputs.NomeEmpresa
}

// plainDecimal renders a pt-BR decimal without thousand grouping.
func plainDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// quoteField wraps a free-text value in double quotes, doubling any
// embedded quote, so semicolons inside it do not split the row.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
