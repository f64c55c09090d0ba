package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/nlwealth/advisorforms/internal/models"
)

// maxOptions is the number of answer slots per row in the tabular format.
const maxOptions = 5

// Option values are clamped into this range so a malformed upload cannot
// corrupt score math.
const (
	minOptionValue = 0
	maxOptionValue = 30
)

// OptionCell is one (text, value) column pair of a template row. Empty cells
// mark unused trailing slots.
type OptionCell struct {
	Text  string
	Value string
}

// TemplateRow is one flat record of the canonical tabular template format:
// a question plus up to five answer slots.
type TemplateRow struct {
	QuestionNumber string
	QuestionText   string
	Options        [maxOptions]OptionCell
}

// templateCSVHeader is the canonical column order. Export reproduces it
// exactly so files round-trip through spreadsheet tools.
var templateCSVHeader = []string{
	"question_number", "question_text",
	"answer1_text", "answer1_value",
	"answer2_text", "answer2_value",
	"answer3_text", "answer3_value",
	"answer4_text", "answer4_value",
	"answer5_text", "answer5_value",
}

// NormalizeText folds typographic quotes to their ASCII forms and normalizes
// line endings. Spreadsheet exports routinely carry smart quotes that break
// display and CSV round-tripping downstream.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
		"\r\n", "\n",
	)
	return r.Replace(s)
}

// Normalize turns tabular rows into a template for the given section. Rows
// missing a question number or question text are skipped and reported as
// warnings rather than failing the whole file; an option slot is used only
// when both its text and value cells are populated. Option values are coerced
// to integers and clamped into [0, 30]. The returned template id defaults to
// "<section>-template"; callers may override it before storing.
func Normalize(rows []TemplateRow, section models.Section) (*models.Template, []string) {
	var warnings []string
	questions := make([]models.Question, 0, len(rows))
	for i, row := range rows {
		num := strings.TrimSpace(row.QuestionNumber)
		text := strings.TrimSpace(row.QuestionText)
		if num == "" || text == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: missing question number or text, skipped", i+1))
			continue
		}
		q := models.Question{
			ID:   num,
			Text: NormalizeText(row.QuestionText),
		}
		for slot, cell := range row.Options {
			if cell.Text == "" || cell.Value == "" {
				continue
			}
			q.Options = append(q.Options, models.AnswerOption{
				ID:    fmt.Sprintf("answer-%s-%d", num, slot+1),
				Text:  NormalizeText(cell.Text),
				Value: clampValue(cell.Value),
			})
		}
		questions = append(questions, q)
	}
	title := strings.ToUpper(string(section)[:1]) + string(section)[1:] + " Questionnaire"
	return &models.Template{
		ID:          string(section) + "-template",
		Section:     section,
		Title:       title,
		Description: "Generated from CSV upload",
		Questions:   questions,
	}, warnings
}

// TemplateToRows is the inverse of Normalize: one row per question, values
// rendered as the same integers, absent option slots left as empty strings.
func TemplateToRows(t *models.Template) []TemplateRow {
	rows := make([]TemplateRow, 0, len(t.Questions))
	for _, q := range t.Questions {
		row := TemplateRow{QuestionNumber: q.ID, QuestionText: q.Text}
		for i, opt := range q.Options {
			if i >= maxOptions {
				break
			}
			row.Options[i] = OptionCell{Text: opt.Text, Value: strconv.Itoa(opt.Value)}
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseTemplateCSV reads the canonical tabular format. Header columns are
// matched by name so extra or reordered columns are tolerated.
func ParseTemplateCSV(data []byte) ([]TemplateRow, error) {
	// Strip optional UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, NewInvalidError("invalid csv: " + err.Error())
	}
	if len(records) == 0 {
		return nil, NewInvalidError("empty csv")
	}
	header := records[0]
	idx := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	iNum := idx("question_number")
	iText := idx("question_text")
	if iNum < 0 || iText < 0 {
		return nil, NewInvalidError("csv must have question_number and question_text columns")
	}
	var iOptText, iOptValue [maxOptions]int
	for i := 0; i < maxOptions; i++ {
		iOptText[i] = idx(fmt.Sprintf("answer%d_text", i+1))
		iOptValue[i] = idx(fmt.Sprintf("answer%d_value", i+1))
	}

	rows := make([]TemplateRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(strings.TrimSpace(strings.Join(rec, ""))) == 0 {
			continue
		}
		get := func(i int) string {
			if i >= 0 && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		row := TemplateRow{QuestionNumber: get(iNum), QuestionText: get(iText)}
		for i := 0; i < maxOptions; i++ {
			row.Options[i] = OptionCell{Text: get(iOptText[i]), Value: get(iOptValue[i])}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RenderTemplateCSV writes rows in the canonical column order. csv.Writer
// supplies the quoting whenever a field carries a separator, a quote, or a
// newline.
func RenderTemplateCSV(rows []TemplateRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(templateCSVHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		rec := make([]string, 0, len(templateCSVHeader))
		rec = append(rec, row.QuestionNumber, row.QuestionText)
		for _, cell := range row.Options {
			rec = append(rec, cell.Text, cell.Value)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func clampValue(raw string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(raw))
	if n < minOptionValue {
		return minOptionValue
	}
	if n > maxOptionValue {
		return maxOptionValue
	}
	return n
}
