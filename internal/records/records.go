// Package records describes the raw project-status document scanned by the classifier.
package records

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Collection names as they appear in an input document.
const (
	CollectionEmails            = "emails"
	CollectionSiteLogs          = "site_logs"
	CollectionInspectionReports = "inspection_reports"
)

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError locates a record that cannot be read.
// Index is -1 when the collection itself has the wrong shape.
type MalformedRecordError struct {
	Collection string
	Index      int
	Field      string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	loc := e.Collection
	if e.Index >= 0 {
		loc = fmt.Sprintf("%s[%d]", e.Collection, e.Index)
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed record: %s: %s", loc, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s: field %q %s", loc, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Record is one undecoded entry of a collection.
type Record map[string]any

// Document is a loaded input document. Absent collections are nil.
type Document struct {
	Emails            []Record `json:"emails,omitempty"`
	SiteLogs          []Record `json:"site_logs,omitempty"`
	InspectionReports []Record `json:"inspection_reports,omitempty"`
}

// Len returns the number of records across all collections.
func (d Document) Len() int {
	return len(d.Emails) + len(d.SiteLogs) + len(d.InspectionReports)
}

// Email is a project email.
type Email struct {
	Date    string `mapstructure:"date"`
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

// SiteLog is a daily site log entry.
type SiteLog struct {
	LogDate     string `mapstructure:"log_date"`
	Description string `mapstructure:"description"`
}

// InspectionReport is the outcome of an inspection.
type InspectionReport struct {
	Date     string `mapstructure:"date"`
	Area     string `mapstructure:"area"`
	Status   string `mapstructure:"status"`
	Comments string `mapstructure:"comments"`
}

var (
	emailFields      = []string{"date", "subject", "body"}
	siteLogFields    = []string{"log_date", "description"}
	inspectionFields = []string{"date", "area", "status", "comments"}
)

// DecodeEmail decodes the record at emails[index].
func DecodeEmail(rec Record, index int) (Email, error) {
	var out Email
	err := decode(rec, CollectionEmails, index, emailFields, &out)
	return out, err
}

// DecodeSiteLog decodes the record at site_logs[index].
func DecodeSiteLog(rec Record, index int) (SiteLog, error) {
	var out SiteLog
	err := decode(rec, CollectionSiteLogs, index, siteLogFields, &out)
	return out, err
}

// DecodeInspectionReport decodes the record at inspection_reports[index].
func DecodeInspectionReport(rec Record, index int) (InspectionReport, error) {
	var out InspectionReport
	err := decode(rec, CollectionInspectionReports, index, inspectionFields, &out)
	return out, err
}

func decode(rec Record, collection string, index int, required []string, out any) error {
	if rec == nil {
		return &MalformedRecordError{Collection: collection, Index: index, Reason: "record is not an object"}
	}
	for _, field := range required {
		value, ok := rec[field]
		if !ok {
			return &MalformedRecordError{Collection: collection, Index: index, Field: field, Reason: "is missing"}
		}
		if _, ok := value.(string); !ok {
			return &MalformedRecordError{Collection: collection, Index: index, Field: field, Reason: fmt.Sprintf("is %T, want string", value)}
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnset: true,
		Result:     out,
	})
	if err != nil {
		return fmt.Errorf("create record decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return &MalformedRecordError{Collection: collection, Index: index, Reason: err.Error()}
	}
	return nil
}
