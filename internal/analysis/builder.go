// Package analysis implements the contract between the form and the
// external reasoning engine: validating the financial snapshot, building
// the prompt/system-instruction pair, and parsing the structured JSON
// reply back into the result model.
package analysis

import (
	"fmt"
	"strings"

	"github.com/spassessoria/tax-advisor-go/internal/brdoc"
	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/money"
)

// systemInstruction embeds the calculation rules the engine's output is
// judged against. The rules are communicated, not computed locally.
const systemInstruction = `
Você é um Auditor Fiscal e Especialista Tributário Sênior no Brasil. Sua função é calcular com EXATIDÃO MATEMÁTICA os impostos devidos por uma empresa em quatro cenários: Simples Nacional, Lucro Presumido, Lucro Real e MEI.

**REGRAS ESTRITAS DE CÁLCULO (LEGISLAÇÃO VIGENTE):**

1.  **ELEGIBILIDADE POR FATURAMENTO:**
    *   MEI: até R$ 81.000/ano. Simples Nacional: até R$ 4,8 milhões/ano. Lucro Presumido: até R$ 78 milhões/ano. Lucro Real: sem teto.
    *   Regime INELEGÍVEL: informe impostoEstimado 0 e explique o motivo em detalhes. Um regime inelegível NUNCA pode ser o melhorRegime.

2.  **SIMPLES NACIONAL (LC 123/2006):**
    *   **Base de Cálculo:** RBT12 (Faturamento Total).
    *   **Anexo:** Classifique obrigatoriamente pelo CNAE principal (I Comércio, II Indústria, III/IV/V Serviços). Para atividades do Anexo V, aplique o Fator R (folha/faturamento ≥ 28% reclassifica para o Anexo III).
    *   **Fórmula:** ((RBT12 x Alíquota Nominal) - Parcela a Deduzir) / RBT12.
    *   **Monofásico:** Reduzir a parcela de PIS/COFINS do DAS proporcionalmente à receita monofásica.
    *   **Impostos Locais (ISS/ICMS):** Já estão inclusos na alíquota do DAS. Não separar.

3.  **LUCRO PRESUMIDO:**
    *   **Federais (PIS/COFINS/IRPJ/CSLL):** Seguir as regras de presunção (Serviços 32%, Comércio 8%).
    *   **Estaduais/Municipais (ESTIMATIVA):**
        *   Se Comércio/Indústria: Estimar ICMS (efetivo médio de 4% a 7% dependendo do estado ou alíquota padrão se não informado).
        *   Se Serviços: Estimar ISS (fixo entre 2% e 5%, use média de 3.5% se não especificado).
        *   **IMPORTANTE:** O campo 'impostoEstimado' deve ser a SOMA TOTAL (Federais + ISS/ICMS). O campo 'issIcmsEstimado' deve conter apenas a parte do ISS e ICMS.

4.  **LUCRO REAL:**
    *   **PIS/COFINS (Não-Cumulativo):** 9.25% sobre faturamento. Receita monofásica não gera novo débito de PIS/COFINS.
        *   **CRÉDITOS:** Calcule 9.25% sobre as despesas marcadas como DEDUTÍVEIS que geram crédito (Insumos, Energia, Aluguel PJ). Abata isso do débito.
    *   **IRPJ/CSLL:** Base é o Lucro Líquido Real.
        *   Lucro Líquido = Faturamento - (Folha + Pró-Labore + Todas Despesas Operacionais).
        *   Se houver Prejuízo Fiscal acumulado, abater até 30% do Lucro Líquido antes de aplicar as alíquotas (15% + 10% + 9%).

**FORMATO DE RESPOSTA (JSON):**
*   'issIcmsEstimado': Valor estimado de impostos locais (fora os federais). No Simples, pode ser 0 ou a parcela correspondente. No Presumido/Real, calcule separadamente.
*   'valorCreditoPisCofins': Para Lucro Real, o valor economizado com créditos de PIS/COFINS sobre despesas.
*   'detalhes': Explique a lógica, incluindo base de cálculo, alíquotas de ISS/ICMS usadas e créditos abatidos.
*   'melhorRegime': obrigatoriamente um regime presente em 'analise' com impostoEstimado maior que zero.
`

// Brief is the fully assembled engine request: free-text prompt plus the
// system instructions carrying the business rules. The output schema
// itself is declared by the engine adapter.
type Brief struct {
	System string
	Prompt string
}

// Validate enforces the snapshot invariants before submission. It returns
// the first violation found as a typed error.
func Validate(s *domain.FinancialSnapshot) error {
	if s.Faturamento == "" {
		return &domain.ErrValidation{Field: "faturamento", Message: "faturamento total é obrigatório"}
	}
	faturamento := money.Parse(s.Faturamento)
	if faturamento < 0 {
		return &domain.ErrValidation{Field: "faturamento", Message: "faturamento não pode ser negativo"}
	}
	if mono := money.Parse(s.FaturamentoMonofasico); mono > faturamento {
		return &domain.ErrValidation{
			Field:   "faturamentoMonofasico",
			Message: "O Faturamento Monofásico não pode ser maior que o Faturamento Total.",
		}
	}
	if s.TipoEmpresa == "" {
		return &domain.ErrValidation{Field: "tipoEmpresa", Message: "atividade predominante é obrigatória"}
	}
	if len(s.CNAEs) == 0 {
		return &domain.ErrValidation{Field: "cnaes", Message: "informe ao menos um CNAE"}
	}
	for _, cnae := range s.CNAEs {
		if err := brdoc.ValidateCNAE(cnae); err != nil {
			return err
		}
	}
	if len(s.DynamicExpenses) == 0 {
		return &domain.ErrValidation{Field: "dynamicExpenses", Message: "informe ao menos uma linha de despesa"}
	}
	if s.CNPJ != "" {
		if err := brdoc.ValidateCNPJ(s.CNPJ); err != nil {
			return err
		}
	}
	return nil
}

// Build assembles the engine brief from a validated snapshot. The
// transformation is pure and deterministic: the same snapshot always
// yields the same brief.
func Build(s *domain.FinancialSnapshot) *Brief {
	expenses := allExpenses(s)

	var deductible []domain.ExpenseItem
	totalDeductible := 0.0
	for _, e := range expenses {
		if e.IsDeductible {
			deductible = append(deductible, e)
			totalDeductible += money.Parse(e.Value)
		}
	}

	deductibleLines := "Nenhuma outra despesa dedutível informada."
	if len(deductible) > 0 {
		var lines []string
		for _, e := range deductible {
			name := e.Name
			if name == "" {
				name = "Despesa"
			}
			lines = append(lines, fmt.Sprintf("- %s: R$ %s (Dedutível IRPJ e potencial crédito PIS/COFINS)",
				name, money.FormatNumber(money.Parse(e.Value))))
		}
		deductibleLines = strings.Join(lines, "\n")
	}

	primary := "N/A"
	var secondary []string
	if len(s.CNAEs) > 0 {
		primary = s.CNAEs[0]
		secondary = s.CNAEs[1:]
	}

	monoLine := ""
	if mono := money.Parse(s.FaturamentoMonofasico); mono > 0 {
		monoLine = fmt.Sprintf("- Deste total, Faturamento com Produtos Monofásicos: R$ %s", money.FormatNumber(mono))
	}

	lossLine := "- Sem prejuízo fiscal acumulado."
	if loss := money.Parse(s.PrejuizoFiscal); loss > 0 {
		lossLine = fmt.Sprintf("- Prejuízo Fiscal Acumulado: R$ %s", money.FormatNumber(loss))
	}

	nome := s.NomeEmpresa
	if nome == "" {
		nome = "Empresa Exemplo"
	}
	ano := s.AnoReferencia
	if ano == "" {
		ano = "2026"
	}

	prompt := fmt.Sprintf(`
Analise os seguintes dados financeiros da empresa %q para o ano de %s (período: %s).

**DADOS DA EMPRESA:**
- CNAE Principal: %s
- Outros CNAEs: %s
- Atividade Predominante: %s

**DADOS FINANCEIROS ANUAIS:**
1. Faturamento Bruto Total: R$ %s
%s

2. Custos e Despesas:
- Folha de Pagamento Total: R$ %s
- Despesas Operacionais Dedutíveis:
%s
- Total Despesas Operacionais: R$ %s

3. Histórico:
%s

**INSTRUÇÕES DE CÁLCULO:**
1. Calcule os impostos Federais e adicione uma estimativa de ISS (para Serviços) ou ICMS (para Comércio/Indústria).
2. No Lucro Real, identifique explicitamente quanto de crédito de PIS/COFINS foi gerado pelas despesas operacionais.
3. Separe o valor estimado de ISS/ICMS no campo específico do JSON.
`,
		nome, ano, s.PeriodoAnalise,
		primary, strings.Join(secondary, ", "), s.TipoEmpresa,
		money.FormatNumber(money.Parse(s.Faturamento)), monoLine,
		money.FormatNumber(money.Parse(s.FolhaPagamento)),
		deductibleLines, money.FormatNumber(totalDeductible),
		lossLine,
	)

	return &Brief{System: systemInstruction, Prompt: prompt}
}

// allExpenses returns the snapshot's expense lines plus the owner's
// compensation synthesized as a deductible line when positive.
func allExpenses(s *domain.FinancialSnapshot) []domain.ExpenseItem {
	expenses := make([]domain.ExpenseItem, len(s.DynamicExpenses))
	copy(expenses, s.DynamicExpenses)

	if money.Parse(s.ProLabore) > 0 {
		expenses = append(expenses, domain.ExpenseItem{
			Name:         "Pró-Labore",
			Value:        s.ProLabore,
			Icon:         "fa-user-tie",
			IsDeductible: true,
		})
	}
	return expenses
}
