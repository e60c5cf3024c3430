// Package fs exports ingested events as Markdown files on disk.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/agendex"
)

// ExportStore writes one Markdown file per ingestion request with atomic
// update semantics. Files are written to a temporary directory, then the
// whole export is moved into place on Commit, so readers never observe a
// half-written export.
type ExportStore struct {
	baseDir string
	name    string
}

// NewExportStore creates a new ExportStore. baseDir is the parent
// directory, name is the output directory name. Files are written to
// baseDir/name.tmp and moved to baseDir/name on Commit.
func NewExportStore(baseDir, name string) *ExportStore {
	return &ExportStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *ExportStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *ExportStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes one request to the pending export.
func (s *ExportStore) Save(ctx context.Context, req *agendex.IngestRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(req.SourceURL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(FormatRequest(req)), 0644)
}

// Commit atomically replaces the previous export with the pending one.
func (s *ExportStore) Commit() error {
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the pending export.
func (s *ExportStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// URLToPath converts an event page URL to a relative file path.
// Example: https://venue.example/events/42 becomes events/42.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", agendex.Errorf(agendex.EINVALID, "invalid source URL %q", rawURL)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return "index.md", nil
	}
	if strings.HasSuffix(path, "/") {
		return path + "index.md", nil
	}
	return path + ".md", nil
}

// detailFields are the event-data keys rendered in the details list, in
// output order. Title and description have their own places in the file.
var detailFields = []string{
	agendex.FieldStartDate, agendex.FieldEndDate, agendex.FieldDoorTime,
	agendex.FieldVenue, agendex.FieldAddress,
	agendex.FieldPrice, agendex.FieldPriceReduced,
	agendex.FieldOrganizerName, agendex.FieldCategory, agendex.FieldCapacity,
}

// FormatRequest renders a request as Markdown with YAML frontmatter.
func FormatRequest(req *agendex.IngestRequest) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(req.SourceURL)
	b.WriteString("\nstatus: ")
	b.WriteString(req.Status)
	b.WriteString("\ncreated: ")
	b.WriteString(req.CreatedAt.Format("2006-01-02"))
	b.WriteString("\n---\n")

	if title := dataString(req, agendex.FieldTitle); title != "" {
		b.WriteString("\n# ")
		b.WriteString(title)
		b.WriteString("\n")
	}
	if desc := dataString(req, agendex.FieldDescription); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}

	var details strings.Builder
	for _, field := range detailFields {
		if v := dataString(req, field); v != "" {
			details.WriteString("- ")
			details.WriteString(field)
			details.WriteString(": ")
			details.WriteString(v)
			details.WriteString("\n")
		}
	}
	if details.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(details.String())
	}

	return b.String()
}

func dataString(req *agendex.IngestRequest, key string) string {
	v, _ := req.EventData[key].(string)
	return strings.TrimSpace(v)
}
