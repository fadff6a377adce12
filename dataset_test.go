package fsds_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsds "github.com/fsdslab/go-fsds"
)

func TestLoadDataset(t *testing.T) {
	ds, err := fsds.LoadDataset("testdata/quarter")
	require.NoError(t, err)

	assert.Empty(t, ds.IntegrityIssues(), "fixture quarter should load cleanly")

	sub, ok := ds.Filing("0001234567-24-000001")
	require.True(t, ok)
	assert.Equal(t, "ACME MANUFACTURING INC", sub.Name)
	assert.Equal(t, "10-K", sub.Form)

	company, ok := ds.CompanyInfo("1234567")
	require.True(t, ok)
	assert.Equal(t, "ACME MANUFACTURING INC", company.Name)

	filings := ds.FilingsForCompany("1234567")
	assert.Len(t, filings, 1)

	assert.Equal(t, []string{"BS", "IS", "CF"}, ds.StatementRoles("0001234567-24-000001"))
}

func TestLoadDatasetMissingDirectory(t *testing.T) {
	_, err := fsds.LoadDataset("testdata/no-such-quarter")
	require.Error(t, err)
}

func TestPeriodLabelFor(t *testing.T) {
	ds, err := fsds.LoadDataset("testdata/quarter")
	require.NoError(t, err)

	assert.Equal(t, "FY-2023", ds.PeriodLabelFor("0001234567-24-000001"))
	assert.Equal(t, "Q1-2024", ds.PeriodLabelFor("0007654321-24-000011"))
}

func TestSampleAccessions(t *testing.T) {
	ds, err := fsds.LoadDataset("testdata/quarter")
	require.NoError(t, err)

	all := ds.SampleAccessions(0, nil, false)
	require.Len(t, all, 2)
	// Newest filing date first.
	assert.Equal(t, "0007654321-24-000011", all[0])

	tenKs := ds.SampleAccessions(10, []string{"10-K"}, true)
	require.Len(t, tenKs, 1)
	assert.Equal(t, "0001234567-24-000001", tenKs[0])
}

func TestConceptLabel(t *testing.T) {
	ds, err := fsds.LoadDataset("testdata/quarter")
	require.NoError(t, err)

	assert.Equal(t, "Net Income (Loss)", ds.ConceptLabel("NetIncomeLoss"))
	assert.Equal(t, "AcmeMadeUpTag", ds.ConceptLabel("AcmeMadeUpTag"))
}
