package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/money"
)

const disclaimer = "Esta análise é uma estimativa gerada por inteligência artificial com base nos dados " +
	"informados e não substitui a avaliação de um contador. Consulte a SP Assessoria Contábil antes de " +
	"qualquer decisão de enquadramento."

// PDF renders the comparison as a printable report.
func PDF(inputs *domain.FinancialSnapshot, result *domain.TaxAnalysis) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(18,
		col.New(12).Add(
			text.New("SP Assessoria Contábil", props.Text{Size: 16, Style: fontstyle.Bold}),
			text.New(fmt.Sprintf("Planejamento Tributário %s", inputs.AnoReferencia), props.Text{Size: 11, Top: 8}),
		),
	)

	m.AddRow(26,
		col.New(6).Add(
			text.New("Empresa: "+companyName(inputs, "Não informada"), props.Text{Size: 10}),
			text.New("CNPJ: "+valueOr(inputs.CNPJ, "Não informado"), props.Text{Size: 10, Top: 5}),
			text.New("Atividade: "+inputs.TipoEmpresa, props.Text{Size: 10, Top: 10}),
		),
		col.New(6).Add(
			text.New("Faturamento anual: R$ "+money.FormatNumber(money.Parse(inputs.Faturamento)), props.Text{Size: 10}),
			text.New("Folha de pagamento: R$ "+money.FormatNumber(money.Parse(inputs.FolhaPagamento)), props.Text{Size: 10, Top: 5}),
			text.New("Período: "+valueOr(inputs.PeriodoAnalise, "anual"), props.Text{Size: 10, Top: 10}),
		),
	)

	m.AddRow(14,
		text.NewCol(12,
			fmt.Sprintf("Recomendação: %s (economia estimada de R$ %s)",
				result.Recomendacao.MelhorRegime,
				money.FormatNumber(result.Recomendacao.EconomiaEstimada)),
			props.Text{Size: 12, Style: fontstyle.Bold, Top: 4},
		),
	)
	m.AddRow(16,
		text.NewCol(12, result.Recomendacao.Justificativa, props.Text{Size: 9}),
	)

	m.AddRow(8,
		text.NewCol(4, "Regime", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Imposto Estimado (R$)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Alíquota Efetiva", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Detalhes", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	for _, item := range result.Analise {
		m.AddRow(14,
			text.NewCol(4, item.Regime, props.Text{Size: 9}),
			text.NewCol(3, money.FormatNumber(item.ImpostoEstimado), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, plainDecimal(item.AliquotaEfetiva*100)+"%", props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, item.Detalhes, props.Text{Size: 7}),
		)
	}

	m.AddRow(20,
		text.NewCol(12, disclaimer, props.Text{Size: 7, Top: 8}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
