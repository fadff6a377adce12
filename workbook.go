package fsds

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// statementSheetNames maps statement roles to workbook sheet names.
var statementSheetNames = map[string]string{
	RoleBalanceSheet:        "Balance Sheet",
	RoleIncomeStatement:     "Income Statement",
	RoleCashFlow:            "Cash Flow",
	RoleEquity:              "Equity",
	RoleComprehensiveIncome: "Comprehensive Income",
}

// WriteWorkbook writes one reconstructed filing to an Excel workbook,
// one sheet per statement, labels indented by hierarchy depth.
func WriteWorkbook(path string, statements map[string][]StatementRow) error {
	if len(statements) == 0 {
		return fmt.Errorf("no statements to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating workbook style: %w", err)
	}

	for i, role := range workbookRoleOrder(statements) {
		rows := statements[role]
		sheet := statementSheetNames[role]
		if sheet == "" {
			sheet = role
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("adding sheet %q: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &[]any{"Line Item", "Value", "Period Start", "Period End", "Unit"}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", "E1", bold); err != nil {
			return err
		}

		for j, row := range rows {
			label := strings.Repeat("    ", row.Depth) + row.Label
			cell := fmt.Sprintf("A%d", j+2)
			values := []any{label, row.Formatted, periodStartOf(row), row.DDate, row.Unit}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
			if row.Abstract {
				if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
					return err
				}
			}
		}

		if err := f.SetColWidth(sheet, "A", "A", 60); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "B", "B", 20); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// workbookRoleOrder lists the statement roles present, core statements
// first in conventional order, variants after.
func workbookRoleOrder(statements map[string][]StatementRow) []string {
	var rest []string
	for role := range statements {
		rest = append(rest, role)
	}
	sort.Strings(rest)

	var ordered []string
	for _, want := range CoreStatementRoles {
		for i, role := range rest {
			if role == want {
				ordered = append(ordered, role)
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}
	return append(ordered, rest...)
}
