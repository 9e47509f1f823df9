package recordfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

// maxQuestionRows bounds a bulk question file; larger uploads are rejected
// instead of truncated.
const maxQuestionRows = 1000

// Parser reads uploaded knowledge and question files. Supported formats are
// JSON ({"documents": [...]}), CSV and XLSX; the format is picked from the
// file extension.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

type documentsFile struct {
	Documents []struct {
		Question   string `json:"question"`
		Answer     string `json:"answer"`
		Summary    string `json:"summary"`
		AnswerType string `json:"answer_type"`
		Date       string `json:"date"`
	} `json:"documents"`
}

// ParseRecords extracts cleaned records from a knowledge file. Records are
// cleaned but not validated here; the indexer decides what to skip.
func (p *Parser) ParseRecords(filename string, data io.Reader) ([]domain.Record, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return p.recordsFromJSON(data)
	case ".csv":
		rows, err := readCSV(data)
		if err != nil {
			return nil, err
		}
		return p.recordsFromRows(rows)
	case ".xlsx":
		rows, err := readXLSX(data)
		if err != nil {
			return nil, err
		}
		return p.recordsFromRows(rows)
	default:
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("unsupported file format: %s", filename))
	}
}

// ParseQuestions extracts bulk questions from a CSV or XLSX file with a
// "question" column. Files above maxQuestionRows rows are rejected.
func (p *Parser) ParseQuestions(filename string, data io.Reader) ([]string, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx":
		rows, err = readXLSX(data)
	default:
		return nil, domain.WrapError(domain.ErrValidation, "parse questions",
			fmt.Errorf("unsupported file format: %s", filename))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "parse questions",
			fmt.Errorf("file is empty: %s", filename))
	}

	columns := headerIndex(rows[0])
	questionCol, ok := columns["question"]
	if !ok {
		return nil, domain.WrapError(domain.ErrValidation, "parse questions",
			fmt.Errorf("missing required column %q", "question"))
	}
	if len(rows)-1 > maxQuestionRows {
		return nil, domain.WrapError(domain.ErrValidation, "parse questions",
			fmt.Errorf("too many questions: %d (max %d)", len(rows)-1, maxQuestionRows))
	}

	questions := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		question := strings.TrimSpace(cell(row, questionCol))
		if question == "" {
			continue
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func (p *Parser) recordsFromJSON(data io.Reader) ([]domain.Record, error) {
	var file documentsFile
	if err := json.NewDecoder(data).Decode(&file); err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("decode json: %w", err))
	}

	records := make([]domain.Record, 0, len(file.Documents))
	for _, doc := range file.Documents {
		records = append(records, domain.CleanRecord(domain.Record{
			Question:   doc.Question,
			Answer:     doc.Answer,
			Summary:    doc.Summary,
			AnswerType: doc.AnswerType,
			Date:       doc.Date,
		}))
	}
	return records, nil
}

func (p *Parser) recordsFromRows(rows [][]string) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("file has no rows"))
	}

	columns := headerIndex(rows[0])
	for _, required := range []string{"question", "answer"} {
		if _, ok := columns[required]; !ok {
			return nil, domain.WrapError(domain.ErrValidation, "parse records",
				fmt.Errorf("missing required column %q", required))
		}
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := domain.CleanRecord(domain.Record{
			Question:   cell(row, columns["question"]),
			Answer:     cell(row, columns["answer"]),
			Summary:    cellNamed(row, columns, "summary"),
			AnswerType: cellNamed(row, columns, "answer_type"),
			Date:       cellNamed(row, columns, "date"),
		})
		if record.Question == "" && record.Answer == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func readCSV(data io.Reader) ([][]string, error) {
	reader := csv.NewReader(data)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("read csv: %w", err))
	}
	return rows, nil
}

func readXLSX(data io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("open xlsx: %w", err))
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("xlsx has no sheets"))
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse records",
			fmt.Errorf("read xlsx rows: %w", err))
	}
	return rows, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func cellNamed(row []string, columns map[string]int, name string) string {
	col, ok := columns[name]
	if !ok {
		return ""
	}
	return cell(row, col)
}
