package scraping

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/internal/domain"
	"github.com/placescout/placescout-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 5. ExportSearch
// ---------------------------------------------------------------------------

// ExportResult is a ready-to-download CSV file.
type ExportResult struct {
	FileName string
	Content  []byte
}

// Excel on pt-BR locales expects a UTF-8 BOM, CRLF line endings and
// semicolon separators; plain RFC 4180 output renders as a single column.
const (
	csvBOM       = "\xEF\xBB\xBF"
	csvSeparator = ";"
	csvEOL       = "\r\n"
	csvHeader    = "nome" + csvSeparator + "telefone" + csvSeparator + "endereço"
)

// ExportSearch renders the results of one owned search as a CSV download.
func (s *Service) ExportSearch(ctx context.Context, searchID uuid.UUID) (*ExportResult, error) {
	ownerID, ok := ctxutil.OwnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	search, err := s.searches.GetByID(ctx, ownerID, searchID)
	if err != nil {
		return nil, fmt.Errorf("get search: %w", err)
	}

	rows, err := s.searches.ExportRows(ctx, ownerID, searchID)
	if err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(csvBOM)
	buf.WriteString(csvHeader)
	buf.WriteString(csvEOL)
	for _, row := range rows {
		buf.WriteString(csvField(row.Name))
		buf.WriteString(csvSeparator)
		buf.WriteString(csvField(row.Phone))
		buf.WriteString(csvSeparator)
		buf.WriteString(csvField(row.Address))
		buf.WriteString(csvEOL)
	}

	return &ExportResult{
		FileName: exportFileName(search.TextQuery),
		Content:  buf.Bytes(),
	}, nil
}

// csvField renders an optional value, quoting it when it contains the
// separator, quotes or line breaks.
func csvField(v *string) string {
	if v == nil {
		return ""
	}
	s := *v
	if strings.ContainsAny(s, csvSeparator+"\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// exportFileName turns a text query into a safe attachment name.
func exportFileName(textQuery string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, textQuery)
	name = strings.Trim(name, "_")
	if name == "" {
		name = "resultados"
	}
	return name + ".csv"
}
