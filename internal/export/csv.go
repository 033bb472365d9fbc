// internal/export/csv.go
package export

import (
	"bufio"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/models"
	"rsd-dataset/pkg/codebook"
)

// Options controls serialization. Zero values mean comma and the built-in
// codebook.
type Options struct {
	Delimiter rune
	Codebook  *codebook.Codebook
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o Options) columns() []string {
	if o.Codebook == nil {
		return codebook.Default().Names()
	}
	return o.Codebook.Names()
}

type formatter func(r *models.Record) string

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatFloat uses the shortest representation that parses back to the same
// float64.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var formatters = map[string]formatter{
	"id":                           func(r *models.Record) string { return strconv.Itoa(r.ID) },
	"country_of_origin":            func(r *models.Record) string { return string(r.CountryOfOrigin) },
	"gender":                       func(r *models.Record) string { return string(r.Gender) },
	"age":                          func(r *models.Record) string { return strconv.Itoa(r.Age) },
	"education_level":              func(r *models.Record) string { return string(r.EducationLevel) },
	"language_proficiency":         func(r *models.Record) string { return string(r.LanguageProficiency) },
	"family_size":                  func(r *models.Record) string { return strconv.Itoa(r.FamilySize) },
	"prior_camp_years":             func(r *models.Record) string { return strconv.Itoa(r.PriorCampYears) },
	"persecution_ground":           func(r *models.Record) string { return string(r.PersecutionGround) },
	"persecution_type":             func(r *models.Record) string { return string(r.PersecutionType) },
	"nexus_established":            func(r *models.Record) string { return formatBool(r.NexusEstablished) },
	"state_protection_score":       func(r *models.Record) string { return formatFloat(r.StateProtectionScore) },
	"internal_relocation_possible": func(r *models.Record) string { return formatBool(r.InternalRelocationPossible) },
	"reported_trauma":              func(r *models.Record) string { return formatBool(r.ReportedTrauma) },
	"credibility_score":            func(r *models.Record) string { return formatFloat(r.CredibilityScore) },
	"risk_score":                   func(r *models.Record) string { return formatFloat(r.RiskScore) },
	"risk_score_uncapped":          func(r *models.Record) string { return formatFloat(r.RiskScoreUncapped) },
	"integration_score":            func(r *models.Record) string { return formatFloat(r.IntegrationScore) },
	"AI_decision":                  func(r *models.Record) string { return string(r.AIDecision) },
	"human_reviewed":               func(r *models.Record) string { return formatBool(r.HumanReviewed) },
	"human_override":               func(r *models.Record) string { return formatBool(r.HumanOverride) },
	"final_decision":               func(r *models.Record) string { return string(r.FinalDecision) },
	"processing_time_days":         func(r *models.Record) string { return strconv.Itoa(r.ProcessingTimeDays) },
	"appealed":                     func(r *models.Record) string { return formatBool(r.Appealed) },
	"appeal_outcome":               func(r *models.Record) string { return string(r.AppealOutcome) },
	"bias_flag":                    func(r *models.Record) string { return string(r.BiasFlag) },
}

// WriteCSV writes a header and one row per record to w.
func WriteCSV(w io.Writer, records []models.Record, opts Options) error {
	columns := opts.columns()
	fns := make([]formatter, len(columns))
	for i, name := range columns {
		fn, ok := formatters[name]
		if !ok {
			return fmt.Errorf("no formatter for column %q", name)
		}
		fns[i] = fn
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for i := range records {
		for j, fn := range fns {
			row[j] = fn(&records[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", records[i].ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path atomically: rows go to a temporary file
// in the same directory, which is renamed over path only after a successful
// flush and close. It returns the hex SHA-256 of the bytes written.
func WriteFile(path string, records []models.Record, opts Options) (digest string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	hash := sha256.New()
	buf := bufio.NewWriter(io.MultiWriter(tmp, hash))

	if err := WriteCSV(buf, records, opts); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	if err := buf.Flush(); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", errors.NewExportFailedError(path, err)
	}
	committed = true

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Digest returns the hex SHA-256 of the CSV rendering without touching disk.
func Digest(records []models.Record, opts Options) (string, error) {
	hash := sha256.New()
	if err := WriteCSV(hash, records, opts); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ReadFile reads a delimited file back as header plus rows.
func ReadFile(path string, delimiter rune) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}
	return all[0], all[1:], nil
}
