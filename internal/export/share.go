package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/money"
)

// ShareMessage is a ready-to-send WhatsApp summary plus the deep link
// that opens it in the app.
type ShareMessage struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Share builds the WhatsApp summary of a comparison.
func Share(inputs *domain.FinancialSnapshot, result *domain.TaxAnalysis) ShareMessage {
	lines := []string{
		fmt.Sprintf("*Planejamento Tributário %s*", inputs.AnoReferencia),
		fmt.Sprintf("🏢 *Empresa:* %s", companyName(inputs, "Não informada")),
		"",
		fmt.Sprintf("🏆 *Recomendação:* %s", result.Recomendacao.MelhorRegime),
		fmt.Sprintf("💰 *Economia Estimada:* R$ %s", money.FormatNumber(result.Recomendacao.EconomiaEstimada)),
		fmt.Sprintf("📝 *Justificativa:* %s", result.Recomendacao.Justificativa),
		"",
		"*Comparativo de Impostos Anuais:*",
	}
	for _, r := range result.Analise {
		lines = append(lines, fmt.Sprintf("- %s: R$ %s", r.Regime, money.FormatNumber(r.ImpostoEstimado)))
	}
	lines = append(lines, "", "_Gerado por SP Assessoria Contábil_")

	text := strings.Join(lines, "\n")
	return ShareMessage{
		Text: text,
		URL:  "https://wa.me/?text=" + url.QueryEscape(text),
	}
}
