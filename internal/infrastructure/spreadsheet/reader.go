package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	"github.com/extrame/xls"
	"github.com/riskibarqy/nfl-analytics/internal/domain/ecr"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const (
	sniffBytes = 500
	// Legacy exports carry four banner lines above the header.
	legacySkipLines = 4
)

var ErrUnsupportedFormat = crerr.New("unsupported spreadsheet format")

// Reader parses FantasyPros exports: legacy tab-separated text saved as .xls,
// binary .xls workbooks and .xlsx workbooks.
type Reader struct {
	logger *logging.Logger
}

func NewReader(logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reader{logger: logger}
}

func (r *Reader) ReadFrame(path string) (ecr.Frame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".xls", ".tsv", ".txt":
		head, err := readHead(path, sniffBytes)
		if err != nil {
			return ecr.Frame{}, err
		}
		if LooksTabSeparated(head) {
			r.logger.Info("detected tab separated export", "path", path)
			return readLegacyTSV(path)
		}
		if ext != ".xls" {
			return ecr.Frame{}, crerr.Wrapf(ErrUnsupportedFormat, "%s", path)
		}
		return readBinaryXLS(path)
	default:
		return ecr.Frame{}, crerr.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

// LooksTabSeparated reports whether a sample has more tabs than commas and at least one tab.
func LooksTabSeparated(sample []byte) bool {
	tabs := bytes.Count(sample, []byte{'\t'})
	return tabs > 0 && tabs > bytes.Count(sample, []byte{','})
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf[:read], nil
}

func readLegacyTSV(path string) (ecr.Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ecr.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return ecr.Frame{}, crerr.Wrapf(err, "decode %s as windows-1252", path)
		}
		raw = decoded
	}
	raw = skipLines(raw, legacySkipLines)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return ecr.Frame{}, crerr.Wrapf(err, "parse tsv %s", path)
	}
	return frameFromRows(records), nil
}

func skipLines(raw []byte, n int) []byte {
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return nil
		}
		raw = raw[idx+1:]
	}
	return raw
}

func readWorkbook(path string) (ecr.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ecr.Frame{}, crerr.Wrapf(err, "open workbook %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ecr.Frame{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ecr.Frame{}, crerr.Wrapf(err, "read sheet %s of %s", sheets[0], path)
	}
	return frameFromRows(rows), nil
}

func readBinaryXLS(path string) (frame ecr.Frame, err error) {
	// The xls decoder panics on some truncated containers.
	defer func() {
		if rec := recover(); rec != nil {
			frame, err = ecr.Frame{}, crerr.Newf("parse xls %s: %v", path, rec)
		}
	}()

	book, closer, err := xls.OpenWithCloser(path, "utf-8")
	if err != nil {
		return ecr.Frame{}, crerr.Wrapf(err, "open xls %s", path)
	}
	defer func() {
		_ = closer.Close()
	}()

	sheet := book.GetSheet(0)
	if sheet == nil {
		return ecr.Frame{}, nil
	}
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return frameFromRows(rows), nil
}

// frameFromRows uses the first row as header; trailing blank rows are dropped.
func frameFromRows(rows [][]string) ecr.Frame {
	for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return ecr.Frame{}
	}
	return ecr.Frame{Header: rows[0], Rows: rows[1:]}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
