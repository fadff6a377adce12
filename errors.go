package fsds

import (
	"errors"
	"fmt"
	"strings"
)

// Statement role codes as they appear in pre.txt. The dash-suffixed
// variants are layout alternatives of the same statement family.
const (
	RoleBalanceSheet        = "BS"
	RoleIncomeStatement     = "IS"
	RoleCashFlow            = "CF"
	RoleEquity              = "EQ"
	RoleComprehensiveIncome = "CI"
)

// CoreStatementRoles lists the five primary statement families in the
// order filings conventionally present them.
var CoreStatementRoles = []string{
	RoleBalanceSheet,
	RoleIncomeStatement,
	RoleCashFlow,
	RoleEquity,
	RoleComprehensiveIncome,
}

var statementRoles = map[string]bool{
	"BS": true, "BS-LND": true, "BS-ALT": true,
	"IS": true, "IS-COND": true,
	"CF": true, "CF-INDIRECT": true, "CF-DIRECT": true,
	"EQ": true,
	"CI": true,
}

// ErrUnknownStatementRole is returned when a caller passes a role code
// outside the closed set of statement roles.
var ErrUnknownStatementRole = errors.New("unknown statement role")

// ErrEmptyAccession is returned when a caller passes an empty accession number.
var ErrEmptyAccession = errors.New("accession number is empty")

// ValidStatementRole reports whether role is a recognized pre.txt statement code.
func ValidStatementRole(role string) bool {
	return statementRoles[role]
}

// roleFamily collapses layout variants to their statement family
// ("BS-LND" -> "BS", "CF-INDIRECT" -> "CF").
func roleFamily(role string) string {
	if i := strings.Index(role, "-"); i > 0 {
		return role[:i]
	}
	return role
}

// StructuralError reports that a (filing, statement role) pair has no
// usable presentation hierarchy: no rows at all, or a cycle in the
// parent/child relation. The request that hit it fails; nothing else does.
type StructuralError struct {
	Accession string
	Role      string
	Reason    string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("statement %s of filing %s is structurally invalid: %s", e.Role, e.Accession, e.Reason)
}

// IntegrityIssue is a recoverable referential or row-level problem found
// while loading one of the flat files. Issues are collected and reported,
// never raised: real-world quarters always contain a few.
type IntegrityIssue struct {
	File    string // source file ("num", "pre", "tag", "sub")
	Record  int    // 1-based data record number within the file
	Message string
}

func (i IntegrityIssue) String() string {
	return fmt.Sprintf("%s.txt record %d: %s", i.File, i.Record, i.Message)
}
