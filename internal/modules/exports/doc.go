// Package exports renders result views into PDF and Excel documents.
//
// Both renderers consume the same intermediate Doc, built once per export
// from the included rows of a view. Every number in the document is
// formatted here, so the PDF, the Excel file and the on-screen footer can
// never disagree about a subtotal.
package exports

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mvdops/blendboard/internal/modules/blend"
	"github.com/mvdops/blendboard/internal/modules/lots"
)

// Columns of every exported lot table, in render order. The low-recovery
// tables append the classification column.
var columns = []string{
	"N°", "CÓDIGO", "ZONA",
	"TMH", "% H2O", "TMS",
	"Au g/t", "Au Fino", "Ag g/t", "Ag Fino",
	"Cu %", "NaCN kg/t", "NaOH kg/t", "Rec %",
}

var lowRecColumns = append(append([]string{}, columns...), "CLASIFICACIÓN")

// Doc is the renderer-neutral form of one export.
type Doc struct {
	Title    string
	DateLine string
	Filename string // without extension
	LogoPath string // PDF header logo; blank or missing file skips it
	Sections []Section
}

// Section is one table: a pile, or a recovery-classification bucket.
type Section struct {
	Heading   string
	SheetName string
	Columns   []string
	Rows      [][]string
	Subtotal  []string
}

// signatories renders at the foot of the PDF, one block each.
var signatories = []struct {
	Role    string
	Company string
}{
	{"Sub Gerencia de Planta", "Minera Veta Dorada S.A.C."},
	{"Supervisión de Cancha", "Minera Veta Dorada S.A.C."},
	{"Control de Minerales", "Minera Veta Dorada S.A.C."},
}

// Build turns an export snapshot into the renderer-neutral document.
func Build(ev blend.ExportView) Doc {
	date := lots.FormatDDMMYYYY(ev.Date)
	doc := Doc{
		Title:    ev.Title,
		DateLine: "Fecha de Pila: " + date,
		Filename: filename(ev.View, ev.Date),
	}

	if ev.View == 4 {
		// total table first, then one table per classification
		doc.Sections = append(doc.Sections,
			buildSection("Baja Recuperación (Total)", "BajaRec Total", ev.Rows, true))
		for _, b := range ev.Buckets {
			doc.Sections = append(doc.Sections,
				buildSection("Baja Recuperación – "+b.Class, "BR "+b.Class, b.Rows, true))
		}
		return doc
	}

	for _, p := range ev.Piles {
		label := fmt.Sprintf("Pila %d %s", p.Code, string(p.Type))
		k := blend.KPIsFor(p.Rows)
		heading := fmt.Sprintf("PILA %d – %s   TMS=%s | Au=%s g/t | Hum=%s%% | Rec=%s%%",
			p.Code, strings.ToUpper(string(p.Type)),
			FormatNumber(k.TmsSum, 2), FormatNumber(k.AuWeighted, 2),
			FormatNumber(k.HumWeighted, 2), FormatNumber(k.RecWeighted, 2))
		doc.Sections = append(doc.Sections, buildSection(heading, label, p.Rows, false))
	}
	return doc
}

func buildSection(heading, sheetLabel string, rows []lots.LotRow, lowRec bool) Section {
	cols := columns
	if lowRec {
		cols = lowRecColumns
	}
	s := Section{
		Heading:   heading,
		SheetName: SanitizeSheetName(sheetLabel),
		Columns:   cols,
	}
	for i, r := range rows {
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.Codigo,
			r.Zona,
			cell(r.Tmh), cell(r.HumedadPct), cell(r.Tms),
			cell(r.AuGrTon), cell(r.AuFino), cell(r.AgGrTon), cell(r.AgFino),
			cell(r.CuPct), cell(r.NacnKgT), cell(r.NaohKgT), cell(r.RecPct),
		}
		if lowRec {
			row = append(row, r.RecClass)
		}
		s.Rows = append(s.Rows, row)
	}

	t := blend.TotalsFor(rows)
	s.Subtotal = []string{
		"SUBTOTAL",
		fmt.Sprintf("%d lotes", t.Count),
		"",
		FormatNumber(t.TmhSum, 2), FormatNumber(t.HumW, 2), FormatNumber(t.TmsSum, 2),
		FormatNumber(t.AuW, 2), FormatNumber(t.AuFinoSum, 2), FormatNumber(t.AgW, 2), FormatNumber(t.AgFinoSum, 2),
		FormatNumber(t.CuW, 2), FormatNumber(t.NacnW, 2), FormatNumber(t.NaohW, 2), FormatNumber(t.RecW, 2),
	}
	if lowRec {
		s.Subtotal = append(s.Subtotal, "")
	}
	return s
}

func cell(m lots.Metric) string {
	if !m.Present {
		return ""
	}
	return FormatNumber(m.Value, 2)
}

func filename(view int, date time.Time) string {
	d := date.Format("02-01-2006")
	if view == 4 {
		return "Export_BajaRec_" + d
	}
	return fmt.Sprintf("Export_Resultado%d_%s", view, d)
}

// FormatNumber renders v with the given decimals and comma thousands
// separators, the way the sheets print them.
func FormatNumber(v float64, decimals int) string {
	neg := math.Signbit(v) && v != 0
	s := fmt.Sprintf("%.*f", decimals, math.Abs(v))

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// excel forbids these characters in sheet names and caps them at 31 runes.
var sheetNameSanitizer = strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "")

// SanitizeSheetName makes a string safe to use as an Excel sheet name.
func SanitizeSheetName(name string) string {
	name = sheetNameSanitizer.Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Hoja"
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return strings.TrimSpace(string(runes))
}
