package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/services"
	"patrimonio/internal/sources/memory"
)

func fixtureStore() *memory.Store {
	s := memory.New()
	s.Put("2024-01.json", []byte(`{"portfolio":[
		{"id":"cash","title":"Cash","color":"#0a0","items":[{"name":"Wallet","source":"Bank","val":1000},{"name":"Old","source":"Bank","val":50}]}
	]}`))
	s.Put("2024-02.json", []byte(`{"portfolio":[
		{"id":"cash","title":"Cash","color":"#0a0","items":[{"name":"Wallet","source":"Bank","val":1100}]}
	]}`))
	s.Put("transfers_2024-02.json", []byte(`[{"type":"deposit","category":"stocks","source":"Broker","name":"ACME","amount":300}]`))
	return s
}

func eur(t *testing.T) Money {
	t.Helper()
	m, err := NewMoney("eur")
	require.NoError(t, err)
	return m
}

func TestMoney(t *testing.T) {
	m := eur(t)
	assert.Equal(t, money.New(123456, money.EUR).Display(), m.Format(decimal.RequireFromString("1234.56")))
	assert.Equal(t, money.New(1000, money.EUR).Display(), m.Format(decimal.RequireFromString("9.999")))
	assert.True(t, strings.HasPrefix(m.Signed(decimal.NewFromInt(5)), "+"))
	assert.False(t, strings.HasPrefix(m.Signed(decimal.NewFromInt(-5)), "+"))

	_, err := NewMoney("XXXX")
	assert.Error(t, err)

	assert.Equal(t, "+4.17%", Percent(4.1666))
	assert.Equal(t, "-1.00%", Fraction(-0.01))
}

func TestMonthViewMarkdown(t *testing.T) {
	view, err := services.NewMonthService(fixtureStore(), log.Nop()).Load(context.Background(), core.NewMonth(2024, 2))
	require.NoError(t, err)

	md := MonthView(view, eur(t))
	assert.Contains(t, md, "# February 2024")
	assert.Contains(t, md, "## Cash")
	assert.Contains(t, md, "ACME *")
	assert.Contains(t, md, "| new |")
	assert.Contains(t, md, "## Performance")
	assert.Contains(t, md, "## Pending transfers")
	// the old asset only exists in January
	assert.Contains(t, md, "| ghost |")
}

func TestMonthViewFirstMonth(t *testing.T) {
	view, err := services.NewMonthService(fixtureStore(), log.Nop()).Load(context.Background(), core.NewMonth(2024, 1))
	require.NoError(t, err)

	md := MonthView(view, eur(t))
	assert.Contains(t, md, "First month on record")
	assert.NotContains(t, md, "| Previous |")
}

func TestForecastMarkdown(t *testing.T) {
	f, err := services.NewForecastService(fixtureStore(), log.Nop()).Forecast(context.Background(), core.NewMonth(2024, 3))
	require.NoError(t, err)

	md := Forecast(f, eur(t))
	assert.Contains(t, md, "# Forecast March 2024")
	assert.Contains(t, md, "_no data_")
	assert.Equal(t, 3, strings.Count(md, "| January 2024")+strings.Count(md, "| February 2024")+strings.Count(md, "| March 2024"))
}

func TestMonths(t *testing.T) {
	assert.Contains(t, Months(nil), "No documents")
	md := Months([]core.Entry{core.NewMonth(2024, 1).Entry()})
	assert.Contains(t, md, "- `2024-01` January 2024")
}

func TestRender(t *testing.T) {
	md := "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

	var html bytes.Buffer
	require.NoError(t, Render(&html, md, FormatHTML, ""))
	assert.Contains(t, html.String(), "<h1>Title</h1>")
	assert.Contains(t, html.String(), "<table>")

	var raw bytes.Buffer
	require.NoError(t, Render(&raw, md, FormatMarkdown, ""))
	assert.Equal(t, md, raw.String())

	var term bytes.Buffer
	require.NoError(t, Render(&term, md, FormatTerm, "notty"))
	assert.Contains(t, term.String(), "Title")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" HTML ")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
