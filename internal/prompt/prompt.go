// Package prompt composes the instruction prompts sent to the model
// service: SQL generation scoped to one table, generation over the whole
// catalog, and interpretation of returned rows. Builders are pure functions
// of their inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hubia/hubia/internal/alias"
	"github.com/hubia/hubia/internal/schema"
)

// NoDataSentinel is the literal the model is instructed to emit in catalog
// mode when no table can answer the question. It is matched verbatim before
// execution.
const NoDataSentinel = "-- Dados não disponíveis."

type Builder struct {
	DatabaseName string
	Aliases      alias.Aliases
}

// Scoped emits the single-table generation prompt. Cheaper and more precise
// than Catalog when the target table is already known.
func (b *Builder) Scoped(table schema.Table) string {
	var sb strings.Builder
	sb.WriteString("Você é a HuB-IA, assistente de IA da Fecomércio.\n")
	sb.WriteString("Seu papel é criar consultas SQL a partir de perguntas de usuários e depois interpretar os resultados.\n\n")
	fmt.Fprintf(&sb, "Banco de Dados: %s\n", b.DatabaseName)
	fmt.Fprintf(&sb, "Tabela: %s\n", table.Name)
	sb.WriteString("Colunas:\n")
	writeColumns(&sb, table.Columns, "")
	sb.WriteString("\nREGRAS:\n")
	sb.WriteString("1. Gere apenas a QUERY SQL, sem comentários ou explicações.\n")
	sb.WriteString("2. Utilize SUM(), COUNT(), AVG() quando fizer sentido.\n")
	sb.WriteString("3. Não modifique a base (apenas DQL).\n")
	sb.WriteString("4. Comece sempre com SELECT ou WITH.\n")
	sb.WriteString("5. Ao comparar colunas de texto, use LOWER(coluna) e compare com valores em minúsculas. ")
	sb.WriteString("Exemplo: WHERE LOWER(Localidade) = 'recife'\n")
	sb.WriteString("6. Não explique nem justifique a resposta. Apenas retorne a query SQL.")
	return sb.String()
}

// Catalog emits the full-catalog generation prompt: one block per table with
// its description and columns, followed by the shared rule set. Used when no
// table has been resolved from the question.
func (b *Builder) Catalog(tables []schema.Table) string {
	var sb strings.Builder
	sb.WriteString("Você é a HuB-IA, uma inteligência artificial treinada para responder perguntas com base em um banco de dados público da Fecomércio.\n\n")
	sb.WriteString("Seu papel é transformar perguntas em linguagem natural em consultas SQL válidas e eficientes.\n\n")
	sb.WriteString("Veja abaixo as tabelas disponíveis, com uma breve descrição de cada uma:\n")
	for _, table := range tables {
		fmt.Fprintf(&sb, "\nTabela: `%s`\nDescrição: %s\nColunas:\n", table.Name, b.Aliases.Describe(table.Name))
		writeColumns(&sb, table.Columns, "  ")
	}
	sb.WriteString("\nRegras de geração:\n")
	sb.WriteString("1. Nunca modifique os dados, apenas selecione, filtre ou agregue.\n")
	sb.WriteString("2. Utilize funções como SUM(), AVG(), COUNT() quando forem úteis para responder à pergunta.\n")
	sb.WriteString("3. Utilize WHERE para filtrar por ano, localidade ou grupo, sempre que possível.\n")
	sb.WriteString("4. Considere o nome das tabelas e suas descrições como fontes confiáveis de informação.\n")
	sb.WriteString("5. Quando a pergunta citar cidades ou regiões, prefira tabelas que tenham esses nomes no nome ou na descrição.\n")
	sb.WriteString("6. Comece sempre com SELECT ou WITH.\n")
	sb.WriteString("7. Trate comparações com campos textuais como insensíveis a maiúsculas/minúsculas, usando LOWER(coluna) = 'valor'.\n")
	sb.WriteString("8. Não adivinhe. Se não souber como montar a query, não gere nada.\n")
	fmt.Fprintf(&sb, "9. Caso não existam dados compatíveis com a pergunta, retorne apenas: `%s`\n", NoDataSentinel)
	sb.WriteString("\nResponda apenas com a query SQL. Nada mais.")
	return sb.String()
}

// Interpretation embeds the returned rows and asks the model for an
// objective natural-language summary. Rows are flattened to a compact
// textual table; an empty result must be described explicitly by the model.
func (b *Builder) Interpretation(question string, columns []string, rows [][]any) string {
	var sb strings.Builder
	sb.WriteString("Você é uma assistente especializada em dados econômicos. Sua tarefa é interpretar objetivamente os resultados de uma consulta SQL.\n\n")
	sb.WriteString("- Foque apenas nos dados relevantes retornados.\n")
	sb.WriteString("- Não repita a pergunta do usuário.\n")
	sb.WriteString("- Se o resultado estiver vazio, diga isso claramente (ex: \"Não foram encontrados dados para esta pergunta\").\n")
	sb.WriteString("- Se o dado for numérico ou percentual, destaque o valor com precisão.\n")
	sb.WriteString("- Se houver múltiplos resultados, resuma-os de forma clara, em uma lista curta.\n\n")
	sb.WriteString("Resultado da consulta:\n")
	sb.WriteString(FlattenRows(columns, rows))
	fmt.Fprintf(&sb, "\nCom base nesses dados, responda à seguinte pergunta de forma clara e objetiva:\n\"%s\"", question)
	return sb.String()
}

// IsNoData reports whether generated SQL is the no-compatible-data sentinel.
func IsNoData(sqlText string) bool {
	return strings.HasPrefix(strings.TrimSpace(sqlText), strings.TrimSuffix(NoDataSentinel, "."))
}

// FlattenRows renders a result set as a compact textual table: a header
// line with the column names and one comma-separated line per row.
func FlattenRows(columns []string, rows [][]any) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString("\n")
	if len(rows) == 0 {
		sb.WriteString("(nenhum registro)\n")
		return sb.String()
	}
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, value := range row {
			cells = append(cells, fmt.Sprint(value))
		}
		sb.WriteString(strings.Join(cells, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeColumns(sb *strings.Builder, columns []schema.Column, indent string) {
	for _, column := range columns {
		fmt.Fprintf(sb, "%s- %s (%s)\n", indent, column.Name, column.Type)
	}
}
