package recordfile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func TestParseRecordsJSON(t *testing.T) {
	payload := `{"documents": [
		{"question": " What is SSO? ", "answer": "SAML and OIDC are supported.", "summary": "auth", "answer_type": "security"},
		{"question": "Uptime SLA?", "answer": "99.9%"}
	]}`

	records, err := NewParser().ParseRecords("knowledge.json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Question != "What is SSO?" {
		t.Errorf("question not trimmed: %q", records[0].Question)
	}
	if records[0].AnswerType != "security" {
		t.Errorf("answer_type = %q, want security", records[0].AnswerType)
	}
	if records[1].AnswerType != domain.DefaultAnswerType {
		t.Errorf("missing answer_type must default, got %q", records[1].AnswerType)
	}
}

func TestParseRecordsCSV(t *testing.T) {
	payload := "Question,Answer,Summary\nWhat is SSO?,SAML is supported.,auth\n,,\nUptime SLA?,99.9%,\n"

	records, err := NewParser().ParseRecords("knowledge.csv", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("blank rows must be dropped, got %d records", len(records))
	}
	if records[1].Question != "Uptime SLA?" || records[1].Answer != "99.9%" {
		t.Fatalf("unexpected record: %+v", records[1])
	}
}

func TestParseRecordsCSVMissingColumn(t *testing.T) {
	_, err := NewParser().ParseRecords("knowledge.csv", strings.NewReader("question,summary\nq,s\n"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRecordsUnsupportedFormat(t *testing.T) {
	_, err := NewParser().ParseRecords("knowledge.pdf", strings.NewReader("x"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRecordsXLSX(t *testing.T) {
	records, err := NewParser().ParseRecords("knowledge.xlsx", xlsxFile(t, [][]string{
		{"question", "answer", "answer_type"},
		{"What is SSO?", "SAML is supported.", "security"},
	}))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].AnswerType != "security" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestParseQuestionsCSV(t *testing.T) {
	payload := "id,question\n1,What is SSO?\n2,\n3, Uptime SLA? \n"

	questions, err := NewParser().ParseQuestions("questions.csv", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseQuestions() error = %v", err)
	}
	want := []string{"What is SSO?", "Uptime SLA?"}
	if len(questions) != len(want) {
		t.Fatalf("questions = %v, want %v", questions, want)
	}
	for i := range want {
		if questions[i] != want[i] {
			t.Errorf("questions[%d] = %q, want %q", i, questions[i], want[i])
		}
	}
}

func TestParseQuestionsXLSX(t *testing.T) {
	questions, err := NewParser().ParseQuestions("questions.xlsx", xlsxFile(t, [][]string{
		{"question"},
		{"What is SSO?"},
	}))
	if err != nil {
		t.Fatalf("ParseQuestions() error = %v", err)
	}
	if len(questions) != 1 || questions[0] != "What is SSO?" {
		t.Fatalf("unexpected questions: %v", questions)
	}
}

func TestParseQuestionsMissingColumn(t *testing.T) {
	_, err := NewParser().ParseQuestions("questions.csv", strings.NewReader("prompt\nq\n"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQuestionsRowLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("question\n")
	for i := 0; i < maxQuestionRows+1; i++ {
		fmt.Fprintf(&sb, "question %d\n", i)
	}

	_, err := NewParser().ParseQuestions("questions.csv", strings.NewReader(sb.String()))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for oversized file, got %v", err)
	}
}

func xlsxFile(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}
