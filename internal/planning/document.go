package planning

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of every generated document.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Layout of the plan sheet (1-based rows).
const (
	titleRow     = 1
	subtitleRow  = 2
	headerRow    = 4
	firstDataRow = 5
	lastColumn   = "J"
	priorityCol  = "I"
	statusCol    = "J"
)

var planColumnWidths = [10]float64{5, 12, 25, 20, 18, 12, 35, 18, 12, 12}

// Document is a rendered spreadsheet ready to be downloaded or archived.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

type colorGroup struct {
	fill, font string
}

var (
	groupRed    = colorGroup{fill: "#F8D7DA", font: "#9C0006"}
	groupAmber  = colorGroup{fill: "#FFE699", font: "#7F6000"}
	groupOrange = colorGroup{fill: "#F8CBAD", font: "#843C0C"}
	groupBlue   = colorGroup{fill: "#DDEBF7", font: "#1F4E78"}
	groupGreen  = colorGroup{fill: "#C6EFCE", font: "#006100"}
	groupGray   = colorGroup{fill: "#E7E6E6", font: "#3A3838"}
)

var statusGroups = []struct {
	status Status
	group  colorGroup
}{
	{StatusOverdue, groupRed},
	{StatusInProgress, groupAmber},
	{StatusOpen, groupBlue},
	{StatusDone, groupGreen},
	{StatusPlanned, groupGray},
}

var priorityGroups = []struct {
	priority Priority
	group    colorGroup
}{
	{PriorityCritical, groupRed},
	{PriorityHigh, groupOrange},
	{PriorityMedium, groupBlue},
	{PriorityLow, groupGreen},
}

// Synonyms matched in addition to the rendered labels, so hand-edited cells
// keep their colour.
var (
	statusSynonyms   = []textRule{{"completed", groupGreen}}
	prioritySynonyms = []textRule{{"urgent", groupRed}}
)

type textRule struct {
	text  string
	group colorGroup
}

func statusRules(loc Locale) []textRule {
	var rules []textRule
	for _, sg := range statusGroups {
		rules = append(rules, textRule{StatusLabel(loc, sg.status), sg.group})
	}
	return append(rules, statusSynonyms...)
}

func priorityRules(loc Locale) []textRule {
	var rules []textRule
	for _, pg := range priorityGroups {
		rules = append(rules, textRule{PriorityLabel(loc, pg.priority), pg.group})
	}
	return append(rules, prioritySynonyms...)
}

// PlanFilename returns MaintenancePlan_<Week|Month|Quarter>_<yyyy-MM-dd>.xlsx
// for the reference date of p.
func PlanFilename(p Period) string {
	return fmt.Sprintf("MaintenancePlan_%s_%s.xlsx", p.Tag(), p.Reference.Format(ISODateLayout))
}

// RenderReportDocument writes rows into a styled single-sheet workbook:
// merged title and export banners, a header on row 4, one line per row,
// an autofilter over header and data, and text-keyed colouring of the
// priority and status columns.
func RenderReportDocument(rows []Row, p Period, exported time.Time, loc Locale) (*Document, error) {
	labels := LabelsFor(loc)
	f := excelize.NewFile()
	defer f.Close()

	sheet := labels.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newPlanStyles(f)
	if err != nil {
		return nil, err
	}

	title := strings.ToUpper(fmt.Sprintf(labels.Title, p.Label))
	if err := writeBanner(f, sheet, titleRow, title, styles.title); err != nil {
		return nil, err
	}
	if err := writeBanner(f, sheet, subtitleRow, labels.ExportedPrefix+exported.Format(TimestampLayout), styles.subtitle); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(labels.Headers))
	for i, h := range labels.Headers {
		header[i] = h
	}
	headerCell := fmt.Sprintf("A%d", headerRow)
	if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, headerCell, fmt.Sprintf("%s%d", lastColumn, headerRow), styles.header); err != nil {
		return nil, err
	}

	for i, r := range rows {
		line := firstDataRow + i
		assignee := r.Assignee
		if assignee == "" {
			assignee = labels.Unassigned
		}
		values := []interface{}{
			r.Seq,
			r.AssetCode,
			r.AssetName,
			r.Location,
			TypeLabel(loc, r.Type),
			r.DueDate.Format(DisplayDateLayout),
			r.Description,
			assignee,
			PriorityLabel(loc, r.Priority),
			StatusLabel(loc, r.Status),
		}
		start := fmt.Sprintf("A%d", line)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r.Seq, err)
		}
		if err := f.SetCellStyle(sheet, start, fmt.Sprintf("%s%d", lastColumn, line), styles.cell); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("F%d", line), fmt.Sprintf("F%d", line), styles.centered); err != nil {
			return nil, err
		}
	}

	for i, w := range planColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, err
		}
	}

	lastRow := headerRow + len(rows)
	if err := f.AutoFilter(sheet, fmt.Sprintf("A%d:%s%d", headerRow, lastColumn, lastRow), nil); err != nil {
		return nil, fmt.Errorf("autofilter: %w", err)
	}

	if len(rows) > 0 {
		if err := applyTextRules(f, sheet, fmt.Sprintf("%s%d:%s%d", priorityCol, firstDataRow, priorityCol, lastRow), priorityRules(loc)); err != nil {
			return nil, err
		}
		if err := applyTextRules(f, sheet, fmt.Sprintf("%s%d:%s%d", statusCol, firstDataRow, statusCol, lastRow), statusRules(loc)); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Creator: "cmms",
		Created: exported.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Document{
		Filename:    PlanFilename(p),
		ContentType: XLSXContentType,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}, nil
}

type planStyles struct {
	title, subtitle, header, cell, centered int
}

func newPlanStyles(f *excelize.File) (*planStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#BFBFBF", Style: 1},
		{Type: "right", Color: "#BFBFBF", Style: 1},
		{Type: "top", Color: "#BFBFBF", Style: 1},
		{Type: "bottom", Color: "#BFBFBF", Style: 1},
	}
	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "#1F4E78"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
		{
			Font:      &excelize.Font{Italic: true, Color: "#595959"},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		},
		{
			Border:    border,
			Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		},
		{
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
	}
	s := &planStyles{}
	targets := []*int{&s.title, &s.subtitle, &s.header, &s.cell, &s.centered}
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*targets[i] = id
	}
	return s, nil
}

func writeBanner(f *excelize.File, sheet string, row int, text string, style int) error {
	first := fmt.Sprintf("A%d", row)
	last := fmt.Sprintf("%s%d", lastColumn, row)
	if err := f.SetCellValue(sheet, first, text); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, first, last); err != nil {
		return fmt.Errorf("merge %s:%s: %w", first, last, err)
	}
	return f.SetCellStyle(sheet, first, last, style)
}

// applyTextRules adds one case-insensitive "cell contains" rule per text.
// Rules stop at the first match, so earlier entries win.
func applyTextRules(f *excelize.File, sheet, rangeRef string, rules []textRule) error {
	opts := make([]excelize.ConditionalFormatOptions, 0, len(rules))
	for _, r := range rules {
		id, err := f.NewConditionalStyle(&excelize.Style{
			Font: &excelize.Font{Color: r.group.font},
			Fill: excelize.Fill{Type: "pattern", Color: []string{r.group.fill}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("conditional style: %w", err)
		}
		opts = append(opts, excelize.ConditionalFormatOptions{
			Type:       "text",
			Criteria:   "containing",
			Value:      r.text,
			Format:     &id,
			StopIfTrue: true,
		})
	}
	if err := f.SetConditionalFormat(sheet, rangeRef, opts); err != nil {
		return fmt.Errorf("conditional format %s: %w", rangeRef, err)
	}
	return nil
}
