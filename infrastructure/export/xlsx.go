package export

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/utils"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	aggregateSheet = "Aggregate"
	seriesSheet    = "Series"

	headerRow   = 4
	headerColor = "#1F4E78"
	columnWidth = 18
)

// ReportInput reúne o que vai para a planilha; Aggregate e Series são opcionais, mas não ambos
type ReportInput struct {
	Title      string
	KeyColumns []string
	Aggregate  *domain.AggregateResult
	Series     *domain.TimeSeries
	Notes      []string
}

// Report é o arquivo gerado
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Exporter interface {
	Export(in ReportInput) (*Report, error)
}

// XLSXExporter gera relatórios de métricas em planilhas Excel
type XLSXExporter struct {
	generateID func() (string, error)
}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{
		generateID: utils.ReportID,
	}
}

func (e *XLSXExporter) Export(in ReportInput) (*Report, error) {
	if in.Aggregate == nil && in.Series == nil {
		return nil, fmt.Errorf("relatório sem dados para exportar")
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	// a planilha padrão é renomeada para a primeira aba do relatório
	first := aggregateSheet
	if in.Aggregate == nil {
		first = seriesSheet
	}
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return nil, err
	}

	if in.Aggregate != nil {
		if err := writeAggregateSheet(f, styles, in); err != nil {
			return nil, fmt.Errorf("erro ao escrever aba %s: %w", aggregateSheet, err)
		}
	}

	if in.Series != nil {
		if in.Aggregate != nil {
			if _, err := f.NewSheet(seriesSheet); err != nil {
				return nil, err
			}
		}
		if err := writeSeriesSheet(f, styles, in); err != nil {
			return nil, fmt.Errorf("erro ao escrever aba %s: %w", seriesSheet, err)
		}
	}

	f.SetActiveSheet(0)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	id, err := e.generateID()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar nome do arquivo: %w", err)
	}

	return &Report{
		FileName:    "metrics-" + id + ".xlsx",
		ContentType: ContentTypeXLSX,
		Data:        buffer.Bytes(),
	}, nil
}

type sheetStyles struct {
	title  int
	header int
	note   int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return s, err
	}

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, err
	}

	s.note, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "#595959"},
	})
	return s, err
}

func writeAggregateSheet(f *excelize.File, styles sheetStyles, in ReportInput) error {
	result := in.Aggregate

	keyColumns := keyColumnNames(in.KeyColumns, result.Depth)
	columns := append(append([]string{}, keyColumns...), result.Metrics...)
	if len(columns) == 0 {
		return fmt.Errorf("nenhuma coluna para exportar")
	}

	subtitle := fmt.Sprintf("%s (%s)", metering.FormatRangeLabel(result.Range), result.Interval)
	if err := writeHeading(f, styles, aggregateSheet, in.Title, subtitle, columns); err != nil {
		return err
	}

	rows := 0
	if result.Root != nil {
		for _, leaf := range result.Root.Leaves() {
			row := make([]any, 0, len(columns))
			for i := range keyColumns {
				if i < len(leaf.Path) {
					row = append(row, leaf.Path[i])
				} else {
					row = append(row, "")
				}
			}
			for _, name := range result.Metrics {
				row = append(row, cellValue(leaf.Metrics[name]))
			}

			cell, err := excelize.CoordinatesToCellName(1, headerRow+1+rows)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(aggregateSheet, cell, &row); err != nil {
				return err
			}
			rows++
		}
	}

	return finishSheet(f, styles, aggregateSheet, len(columns), rows, in.Notes)
}

func writeSeriesSheet(f *excelize.File, styles sheetStyles, in ReportInput) error {
	series := in.Series
	columns := []string{"Period", "Start", "End", "Value"}

	subtitle := fmt.Sprintf("%s (%s)", metering.FormatRangeLabel(series.Range), series.Interval)
	if err := writeHeading(f, styles, seriesSheet, in.Title, subtitle, columns); err != nil {
		return err
	}

	for i, p := range series.Points {
		row := []any{
			p.Label,
			p.Start.Format("2006-01-02 15:04:05"),
			p.End.Format("2006-01-02 15:04:05"),
			utils.RoundMetric(p.Value),
		}
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(seriesSheet, cell, &row); err != nil {
			return err
		}
	}

	return finishSheet(f, styles, seriesSheet, len(columns), len(series.Points), in.Notes)
}

// writeHeading escreve título (linha 1), subtítulo (linha 2) e cabeçalho das colunas
func writeHeading(f *excelize.File, styles sheetStyles, sheet, title, subtitle string, columns []string) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A2", subtitle); err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}

	start, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(columns), headerRow)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, start, &header); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, styles.header)
}

// finishSheet congela o cabeçalho, aplica o filtro, ajusta larguras e escreve as notas
func finishSheet(f *excelize.File, styles sheetStyles, sheet string, columns, rows int, notes []string) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, err := excelize.CoordinatesToCellName(columns, headerRow+max(rows, 1))
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, first+":"+last, nil); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
		return err
	}

	// notas após uma linha em branco
	noteRow := headerRow + rows + 2
	for i, note := range notes {
		cell := fmt.Sprintf("A%d", noteRow+i)
		if err := f.SetCellValue(sheet, cell, note); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.note); err != nil {
			return err
		}
	}

	return nil
}

// keyColumnNames completa os nomes de níveis ausentes com "Level N"
func keyColumnNames(names []string, depth int) []string {
	out := make([]string, depth)
	for i := range out {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
		} else {
			out[i] = fmt.Sprintf("Level %d", i+1)
		}
	}
	return out
}

func cellValue(v domain.Value) any {
	if v.Kind == domain.KindList {
		items := make([]string, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, cast.ToString(item))
		}
		return strings.Join(items, ", ")
	}
	return utils.RoundMetric(v.Number)
}
