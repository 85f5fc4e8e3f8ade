package records

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONAndYAMLProduceSameDocument(t *testing.T) {
	t.Parallel()

	jsonDoc := `{"emails":[{"date":"2024-01-01","subject":"HVAC","body":"Shipment delay reported"}]}`
	yamlDoc := `emails:
  - date: 2024-01-01
    subject: HVAC
    body: Shipment delay reported
`
	fromJSON, err := Parse([]byte(jsonDoc), ".json")
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(yamlDoc), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Nil(t, fromJSON.SiteLogs)
	assert.Nil(t, fromJSON.InspectionReports)
	assert.Equal(t, 1, fromJSON.Len())
}

func TestParse_YAMLScalarsStayStrings(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`inspection_reports:
  - date: 2024-03-03
    area: 2
    status: true
    comments: 1.50
`), ".yaml")
	require.NoError(t, err)
	require.Len(t, doc.InspectionReports, 1)

	r, err := DecodeInspectionReport(doc.InspectionReports[0], 0)
	require.NoError(t, err)
	assert.Equal(t, InspectionReport{Date: "2024-03-03", Area: "2", Status: "true", Comments: "1.50"}, r)

	doc, err = Parse([]byte("emails:\n  - date: 2024-01-01\n    subject: HVAC\n    body: Shipment delay\n"), ".yml")
	require.NoError(t, err)
	e, err := DecodeEmail(doc.Emails[0], 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", e.Date)
}

func TestParse_YAMLNullAndTopLevel(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte("emails: ~\n"), ".yaml")
	require.NoError(t, err)
	assert.Nil(t, doc.Emails)

	doc, err = Parse([]byte(""), ".yaml")
	require.NoError(t, err)
	assert.Zero(t, doc.Len())

	_, err = DecodeSiteLog(Record{"log_date": "d", "description": nil}, 0)
	require.ErrorIs(t, err, ErrMalformedRecord)

	_, err = Parse([]byte("- a\n- b\n"), ".yaml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
}

func TestParse_DetectsFormatFromContent(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`  {"site_logs":[{"log_date":"2024-02-02","description":"ok"}]}`), "")
	require.NoError(t, err)
	require.Len(t, doc.SiteLogs, 1)

	doc, err = Parse([]byte("site_logs: []\n"), "")
	require.NoError(t, err)
	assert.Empty(t, doc.SiteLogs)
}

func TestParse_CollectionWithWrongShapeIsMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"emails":{"date":"x"}}`), ".json")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRecord)

	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, CollectionEmails, mre.Collection)
	assert.Equal(t, -1, mre.Index)
}

func TestParse_InvalidSyntax(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"emails":[`), ".json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
}

func TestLoad_ReadsFileByExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.yml")
	require.NoError(t, os.WriteFile(path, []byte("inspection_reports:\n  - {date: d, area: Roof, status: Fail, comments: gap}\n"), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.InspectionReports, 1)
	assert.Equal(t, "Roof", doc.InspectionReports[0]["area"])
}

func TestDecode_ReportsMissingField(t *testing.T) {
	t.Parallel()

	_, err := DecodeEmail(Record{"date": "2024-01-01", "subject": "HVAC"}, 2)
	require.ErrorIs(t, err, ErrMalformedRecord)

	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, CollectionEmails, mre.Collection)
	assert.Equal(t, 2, mre.Index)
	assert.Equal(t, "body", mre.Field)
	assert.Equal(t, `malformed record: emails[2]: field "body" is missing`, err.Error())
}

func TestDecode_RejectsNonStringAndNonObject(t *testing.T) {
	t.Parallel()

	_, err := DecodeSiteLog(Record{"log_date": "d", "description": 42}, 0)
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "description", mre.Field)

	_, err = DecodeInspectionReport(nil, 3)
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 3, mre.Index)
	assert.Empty(t, mre.Field)
}

func TestDecode_IgnoresExtraFields(t *testing.T) {
	t.Parallel()

	r, err := DecodeInspectionReport(Record{
		"date": "2024-03-03", "area": "Roof", "status": "Fail", "comments": "membrane gap", "inspector": "J. Doe",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, InspectionReport{Date: "2024-03-03", Area: "Roof", Status: "Fail", Comments: "membrane gap"}, r)
}
