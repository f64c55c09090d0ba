package services

import (
	"strings"
	"testing"

	"github.com/nlwealth/advisorforms/internal/models"
)

func TestNormalizeBuildsQuestionsAndOptionIDs(t *testing.T) {
	rows := []TemplateRow{
		{
			QuestionNumber: "1",
			QuestionText:   "How do you feel about risk?",
			Options: [5]OptionCell{
				{Text: "Very uneasy", Value: "0"},
				{Text: "Comfortable", Value: "15"},
			},
		},
	}
	tmpl, warnings := Normalize(rows, models.SectionRiskTolerance)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if tmpl.ID != "riskTolerance-template" {
		t.Fatalf("template id = %q", tmpl.ID)
	}
	if tmpl.Section != models.SectionRiskTolerance {
		t.Fatalf("section = %q", tmpl.Section)
	}
	if len(tmpl.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(tmpl.Questions))
	}
	q := tmpl.Questions[0]
	if q.ID != "1" {
		t.Fatalf("question id = %q", q.ID)
	}
	if len(q.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(q.Options))
	}
	if q.Options[0].ID != "answer-1-1" || q.Options[1].ID != "answer-1-2" {
		t.Fatalf("option ids = %q, %q", q.Options[0].ID, q.Options[1].ID)
	}
	if q.Options[1].Value != 15 {
		t.Fatalf("option value = %d, want 15", q.Options[1].Value)
	}
}

func TestNormalizeSkipsBadRowsWithWarnings(t *testing.T) {
	rows := []TemplateRow{
		{QuestionNumber: "", QuestionText: "no number"},
		{QuestionNumber: "2", QuestionText: ""},
		{QuestionNumber: "3", QuestionText: "A valid one", Options: [5]OptionCell{{Text: "Yes", Value: "5"}}},
	}
	tmpl, warnings := Normalize(rows, models.SectionRiskTolerance)
	if len(tmpl.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(tmpl.Questions))
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
}

func TestNormalizeIgnoresHalfFilledOptionSlots(t *testing.T) {
	rows := []TemplateRow{
		{
			QuestionNumber: "1",
			QuestionText:   "Q",
			Options: [5]OptionCell{
				{Text: "has text, no value", Value: ""},
				{Text: "", Value: "7"},
				{Text: "complete", Value: "3"},
			},
		},
	}
	tmpl, _ := Normalize(rows, models.SectionRiskTolerance)
	opts := tmpl.Questions[0].Options
	if len(opts) != 1 {
		t.Fatalf("options = %d, want 1", len(opts))
	}
	// Slot numbering follows column position, not compaction order.
	if opts[0].ID != "answer-1-3" {
		t.Fatalf("option id = %q, want answer-1-3", opts[0].ID)
	}
}

func TestNormalizeClampsOptionValues(t *testing.T) {
	rows := []TemplateRow{
		{
			QuestionNumber: "1",
			QuestionText:   "Q",
			Options: [5]OptionCell{
				{Text: "too big", Value: "500"},
				{Text: "negative", Value: "-4"},
				{Text: "garbage", Value: "xyz"},
			},
		},
	}
	tmpl, _ := Normalize(rows, models.SectionRiskTolerance)
	opts := tmpl.Questions[0].Options
	if opts[0].Value != 30 {
		t.Fatalf("clamped high = %d, want 30", opts[0].Value)
	}
	if opts[1].Value != 0 {
		t.Fatalf("clamped low = %d, want 0", opts[1].Value)
	}
	if opts[2].Value != 0 {
		t.Fatalf("non-numeric = %d, want 0", opts[2].Value)
	}
}

func TestNormalizeTextFoldsSmartQuotes(t *testing.T) {
	in := "It’s a “balanced” approach\r\nnext line"
	want := "It's a \"balanced\" approach\nnext line"
	if got := NormalizeText(in); got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}

func TestParseTemplateCSVRoundTrip(t *testing.T) {
	tmpl := &models.Template{
		Section: models.SectionRiskTolerance,
		Questions: []models.Question{
			{
				ID:   "1",
				Text: `A "quoted" question, with a comma`,
				Options: []models.AnswerOption{
					{ID: "answer-1-1", Text: "First", Value: 5},
					{ID: "answer-1-2", Text: "Second", Value: 10},
				},
			},
			{
				ID:      "2",
				Text:    "Plain question",
				Options: []models.AnswerOption{{ID: "answer-2-1", Text: "Only", Value: 30}},
			},
		},
	}
	data, err := RenderTemplateCSV(TemplateToRows(tmpl))
	if err != nil {
		t.Fatalf("RenderTemplateCSV returned error: %v", err)
	}
	rows, err := ParseTemplateCSV(data)
	if err != nil {
		t.Fatalf("ParseTemplateCSV returned error: %v", err)
	}
	back, warnings := Normalize(rows, models.SectionRiskTolerance)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(back.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(back.Questions))
	}
	if back.Questions[0].Text != tmpl.Questions[0].Text {
		t.Fatalf("text = %q, want %q", back.Questions[0].Text, tmpl.Questions[0].Text)
	}
	if len(back.Questions[0].Options) != 2 || back.Questions[0].Options[1].Value != 10 {
		t.Fatalf("options did not survive round trip: %+v", back.Questions[0].Options)
	}
}

func TestParseTemplateCSVHandlesBOMAndReorderedColumns(t *testing.T) {
	csv := "\ufeffquestion_text,question_number,answer1_value,answer1_text\n" +
		"What is your horizon?,1,20,Long\n" +
		"\n"
	rows, err := ParseTemplateCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseTemplateCSV returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].QuestionNumber != "1" || rows[0].QuestionText != "What is your horizon?" {
		t.Fatalf("row = %+v", rows[0])
	}
	if rows[0].Options[0].Text != "Long" || rows[0].Options[0].Value != "20" {
		t.Fatalf("option = %+v", rows[0].Options[0])
	}
}

func TestParseTemplateCSVRejectsMissingColumns(t *testing.T) {
	_, err := ParseTemplateCSV([]byte("foo,bar\n1,2\n"))
	if err == nil {
		t.Fatalf("expected error for missing header columns")
	}
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestRenderTemplateCSVHeaderOrder(t *testing.T) {
	data, err := RenderTemplateCSV(nil)
	if err != nil {
		t.Fatalf("RenderTemplateCSV returned error: %v", err)
	}
	first := strings.SplitN(string(data), "\n", 2)[0]
	want := "question_number,question_text,answer1_text,answer1_value,answer2_text,answer2_value,answer3_text,answer3_value,answer4_text,answer4_value,answer5_text,answer5_value"
	if strings.TrimRight(first, "\r") != want {
		t.Fatalf("header = %q", first)
	}
}
