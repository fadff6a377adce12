package fsds

import (
	"sync"
	"testing"
)

const (
	acmeAccession = "0001234567-24-000001"
	betaAccession = "0007654321-24-000011"
)

var (
	quarterOnce sync.Once
	quarterDS   *Dataset
	quarterErr  error
)

// loadQuarter loads the fixture quarter once and shares it across tests,
// the same way a process shares one loaded dataset across requests.
func loadQuarter(t *testing.T) *Dataset {
	t.Helper()
	quarterOnce.Do(func() {
		quarterDS, quarterErr = LoadDataset("testdata/quarter")
	})
	if quarterErr != nil {
		t.Fatalf("loading fixture dataset: %v", quarterErr)
	}
	return quarterDS
}
