// Package classify scans raw project records for keyword-flagged issues.
package classify

import (
	"fmt"
	"strings"

	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/records"
)

// Keywords matched case-insensitively against a single field of each record.
const (
	KeywordDelay      = "delay"
	KeywordViolation  = "violation"
	KeywordInspection = "fail"
)

// Scan returns one tagged issue per matching record in scan order:
// emails, then site logs, then inspection reports.
// The first record missing an expected field aborts the scan.
func Scan(doc records.Document) ([]model.TaggedIssue, error) {
	issues := make([]model.TaggedIssue, 0)

	for i, rec := range doc.Emails {
		email, err := records.DecodeEmail(rec, i)
		if err != nil {
			return nil, err
		}
		if contains(email.Body, KeywordDelay) {
			issues = append(issues, model.TaggedIssue{
				IssueType:  model.IssueDelay,
				Detail:     fmt.Sprintf("%s - %s: %s", email.Date, email.Subject, email.Body),
				SourceDate: email.Date,
			})
		}
	}

	for i, rec := range doc.SiteLogs {
		entry, err := records.DecodeSiteLog(rec, i)
		if err != nil {
			return nil, err
		}
		if contains(entry.Description, KeywordViolation) {
			issues = append(issues, model.TaggedIssue{
				IssueType:  model.IssueSafety,
				Detail:     fmt.Sprintf("%s - %s", entry.LogDate, entry.Description),
				SourceDate: entry.LogDate,
			})
		}
	}

	for i, rec := range doc.InspectionReports {
		report, err := records.DecodeInspectionReport(rec, i)
		if err != nil {
			return nil, err
		}
		if contains(report.Status, KeywordInspection) {
			issues = append(issues, model.TaggedIssue{
				IssueType:  model.IssueInspection,
				Detail:     fmt.Sprintf("%s - %s: %s", report.Date, report.Area, report.Comments),
				SourceDate: report.Date,
			})
		}
	}

	return issues, nil
}

func contains(field, keyword string) bool {
	return strings.Contains(strings.ToLower(field), keyword)
}
