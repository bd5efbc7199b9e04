package extract

import (
	"archive/zip"
	"encoding/csv"
	"encoding/xml"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetCount = 10
	maxSheetRows  = 200
	maxSheetCols  = 20
)

// documentXML mirrors the paragraph/run structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []docParagraph `xml:"p"`
	} `xml:"body"`
}

type docParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

// extractDOCX concatenates the non-empty paragraphs of a Word document.
func extractDOCX(path string) string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ""
	}
	defer zr.Close()

	var raw []byte
	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return ""
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		break
	}
	if raw == nil {
		return ""
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var parts []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range p.Runs {
			sb.WriteString(run.Text)
		}
		text := strings.TrimSpace(sb.String())
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// extractXLSX renders each sheet as tab-joined rows under a sheet marker.
// Rows and columns are capped so giant workbooks cannot blow up the
// extracted text, and blank rows are skipped.
func extractXLSX(path string) string {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return ""
	}
	defer wb.Close()

	var lines []string
	sheets := wb.GetSheetList()
	if len(sheets) > maxSheetCount {
		sheets = sheets[:maxSheetCount]
	}

	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			continue
		}
		lines = append(lines, "--- Sheet: "+sheet+" ---")
		for i, row := range rows {
			if i >= maxSheetRows {
				break
			}
			if len(row) > maxSheetCols {
				row = row[:maxSheetCols]
			}
			empty := true
			for _, cell := range row {
				if cell != "" {
					empty = false
					break
				}
			}
			if empty {
				continue
			}
			lines = append(lines, strings.Join(row, "\t"))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractCSV re-joins every record with commas, one line per row.
func extractCSV(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		lines = append(lines, strings.Join(record, ","))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// extractPPTX concatenates the de-tagged XML of each slide, in slide order.
func extractPPTX(path string) string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ""
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	byName := make(map[string]*zip.File, len(zr.File))
	for _, file := range zr.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			names = append(names, file.Name)
			byName[file.Name] = file
		}
	}
	sort.Strings(names)

	var slides []string
	for _, name := range names {
		rc, err := byName[name].Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := strings.TrimSpace(stripXMLTags(string(data)))
		if text != "" {
			slides = append(slides, text)
		}
	}
	return strings.TrimSpace(strings.Join(slides, "\n\n"))
}

func stripXMLTags(xmlText string) string {
	plain := xmlTagPattern.ReplaceAllString(xmlText, " ")
	plain = strings.ReplaceAll(plain, "&amp;", "&")
	return strings.Join(strings.Fields(plain), " ")
}
