package fsds

import (
	"strings"
	"testing"
)

const sampleSubTxt = "adsh\tcik\tname\tsic\tcountryinc\tstprinc\tein\tfye\tform\tperiod\tfy\tfp\tfiled\taccepted\tinstance\n" +
	"0000320193-24-000006\t320193\tAPPLE INC\t3571\tUS\tCA\t942404110\t0930\t10-K\t20230930\t2023\tFY\t20231103\t2023-11-03 18:00:00.0\taapl-20230930.htm\n" +
	"0000320193-24-000007\t320193\tAPPLE INC\t3571\tUS\tCA\t942404110\t0930\t10-Q\t20231230\t2024\tQ1\t20240202\t2024-02-02 18:00:00.0\taapl-20231230.htm\n" +
	"0001652044-24-000022\t1652044\tALPHABET INC\t7370\tUS\tDE\t611767919\t1231\t10-K/A\t20231231\t2023\tFY\t20240430\t2024-04-30 12:00:00.0\tgoog-20231231.htm\n"

func TestParseSubmissions(t *testing.T) {
	set, err := ParseSubmissions(strings.NewReader(sampleSubTxt))
	if err != nil {
		t.Fatalf("ParseSubmissions failed: %v", err)
	}

	if got := len(set.All()); got != 3 {
		t.Fatalf("expected 3 submissions, got %d", got)
	}

	sub, ok := set.ByAccession("0000320193-24-000006")
	if !ok {
		t.Fatal("expected to find Apple 10-K by accession")
	}
	if sub.Name != "APPLE INC" {
		t.Errorf("Name = %q, want %q", sub.Name, "APPLE INC")
	}
	if sub.Form != "10-K" {
		t.Errorf("Form = %q, want %q", sub.Form, "10-K")
	}
	if sub.FiscalPeriod != "FY" {
		t.Errorf("FiscalPeriod = %q, want %q", sub.FiscalPeriod, "FY")
	}

	if got := len(set.FilingsForCIK("320193")); got != 2 {
		t.Errorf("expected 2 Apple filings, got %d", got)
	}

	company, ok := set.CompanyInfo("1652044")
	if !ok {
		t.Fatal("expected company info for Alphabet")
	}
	if company.State != "DE" {
		t.Errorf("State = %q, want %q", company.State, "DE")
	}

	if set.Has("9999999999-99-999999") {
		t.Error("Has should be false for an absent accession")
	}
}

func TestNormalizeAccession(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"000032019324000006", "0000320193-24-000006"},
		{"0000320193-24-000006", "0000320193-24-000006"},
		{"  0000320193-24-000006  ", "0000320193-24-000006"},
		{"", ""},
		{"12345", "12345"},
	}
	for _, tt := range tests {
		if got := NormalizeAccession(tt.in); got != tt.want {
			t.Errorf("NormalizeAccession(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterByForm(t *testing.T) {
	set, err := ParseSubmissions(strings.NewReader(sampleSubTxt))
	if err != nil {
		t.Fatalf("ParseSubmissions failed: %v", err)
	}
	subs := set.All()

	tenKs := FilterByForm(subs, "10-K")
	if len(tenKs) != 2 {
		t.Fatalf("FilterByForm(10-K) returned %d filings, want 2 (base plus amendment)", len(tenKs))
	}
	for _, sub := range tenKs {
		if sub.Form != "10-K" && sub.Form != "10-K/A" {
			t.Errorf("unexpected form %q in 10-K filter", sub.Form)
		}
	}

	if got := len(FilterByForm(subs, "10-Q")); got != 1 {
		t.Errorf("FilterByForm(10-Q) returned %d filings, want 1", got)
	}
	if got := len(FilterByForm(subs, "8-K")); got != 0 {
		t.Errorf("FilterByForm(8-K) returned %d filings, want 0", got)
	}
}

func TestFilterByFiledRange(t *testing.T) {
	set, err := ParseSubmissions(strings.NewReader(sampleSubTxt))
	if err != nil {
		t.Fatalf("ParseSubmissions failed: %v", err)
	}

	in2024 := FilterByFiledRange(set.All(), "20240101", "20241231")
	if len(in2024) != 2 {
		t.Fatalf("expected 2 filings filed in 2024, got %d", len(in2024))
	}
}
