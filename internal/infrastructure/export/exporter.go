package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var resultColumns = []string{
	"question", "answer", "confidence", "confidence_breakdown",
	"source_documents", "status", "error_message",
}

// Exporter writes bulk run results to downloadable files in a single output
// directory. Filenames carry a timestamp and a uuid suffix so concurrent runs
// never collide.
type Exporter struct {
	dir string
}

func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Export serializes results to the requested format and returns the generated
// file name (not the full path).
func (e *Exporter) Export(results []domain.BulkItemResult, format string) (string, error) {
	switch format {
	case FormatCSV:
		return e.exportCSV(results)
	case FormatXLSX:
		return e.exportXLSX(results)
	default:
		return "", domain.WrapError(domain.ErrValidation, "export results",
			fmt.Errorf("unsupported export format: %s", format))
	}
}

// Open returns the contents of a previously exported file. The name is
// reduced to its base so a caller cannot escape the export directory.
func (e *Exporter) Open(name string) (io.ReadCloser, error) {
	clean := filepath.Base(name)
	file, err := os.Open(filepath.Join(e.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "open export", err)
		}
		return nil, fmt.Errorf("open export: %w", err)
	}
	return file, nil
}

func (e *Exporter) exportCSV(results []domain.BulkItemResult) (string, error) {
	name := e.fileName(FormatCSV)
	file, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(resultColumns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, item := range results {
		row, err := resultRow(item)
		if err != nil {
			return "", err
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return name, nil
}

func (e *Exporter) exportXLSX(results []domain.BulkItemResult) (string, error) {
	name := e.fileName(FormatXLSX)
	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	header := resultColumns
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, item := range results {
		row, err := resultRow(item)
		if err != nil {
			return "", err
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("cell name: %w", err)
		}
		if err := book.SetSheetRow(sheet, cellRef, &row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	if err := book.SaveAs(filepath.Join(e.dir, name)); err != nil {
		return "", fmt.Errorf("save xlsx: %w", err)
	}
	return name, nil
}

func resultRow(item domain.BulkItemResult) ([]string, error) {
	answer := ""
	if item.Answer != nil {
		answer = *item.Answer
	}
	breakdown := ""
	if item.Breakdown != nil {
		encoded, err := json.Marshal(item.Breakdown)
		if err != nil {
			return nil, fmt.Errorf("encode breakdown: %w", err)
		}
		breakdown = string(encoded)
	}
	sources := ""
	if len(item.SourceDocuments) > 0 {
		encoded, err := json.Marshal(item.SourceDocuments)
		if err != nil {
			return nil, fmt.Errorf("encode source documents: %w", err)
		}
		sources = string(encoded)
	}

	return []string{
		item.Question,
		answer,
		strconv.FormatFloat(item.Confidence, 'f', 4, 64),
		breakdown,
		sources,
		string(item.Status),
		item.ErrorMessage,
	}, nil
}

func (e *Exporter) fileName(format string) string {
	stamp := time.Now().UTC().Format("20060102_150405")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("bulk_results_%s_%s.%s", stamp, suffix, format)
}
