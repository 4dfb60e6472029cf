package schema

import "context"

// Static describes the sales database without touching it.
type Static struct {
	Description Description
}

// NewStatic returns the built-in description of the five sales tables.
func NewStatic() *Static {
	return &Static{Description: SalesSchema()}
}

// Describe returns the fixed description.
func (s *Static) Describe(context.Context) (Description, error) {
	return s.Description, nil
}

// SalesSchema is the layout of the borrowers/institute/loan/managers/target
// database.
func SalesSchema() Description {
	return Description{Tables: []Table{
		{Name: "borrowers", Columns: []Column{
			{"borrower_id", "int"},
			{"name", "varchar(100)"},
			{"contact", "varchar(20)"},
			{"address", "text"},
		}},
		{Name: "institute", Columns: []Column{
			{"institute_id", "int"},
			{"brand_name", "text"},
			{"spoc_name", "text"},
			{"region", "text"},
			{"created_at", "datetime"},
		}},
		{Name: "loan", Columns: []Column{
			{"case_id", "int"},
			{"borrower_id", "int"},
			{"institute_id", "int"},
			{"manager_id", "int"},
			{"classification", "text"},
			{"loan_amount", "double"},
			{"login_date", "varchar(50)"},
			{"approval_date", "varchar(50)"},
			{"UTR_timestamp", "varchar(50)"},
			{"nb", "int"},
		}},
		{Name: "managers", Columns: []Column{
			{"manager_id", "int"},
			{"name", "varchar(100)"},
			{"target", "int"},
			{"achievement", "int"},
			{"created_at", "datetime"},
		}},
		{Name: "target", Columns: []Column{
			{"spoc_name", "text"},
			{"Target", "double"},
		}},
	}}
}
