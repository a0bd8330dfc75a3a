package query

import (
	"fmt"
	"regexp"
	"strings"
)

var aliasPrefix = regexp.MustCompile(`(?i)^.* AS `)

// Fields lists the columns or expressions a SELECT refers to.
type Fields struct {
	Clause
	fields []string
}

func NewFields(fields ...string) Fields {
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	return Fields{
		Clause: NewClause("", strings.Join(fields, ", ")),
		fields: fields,
	}
}

// Names returns the result column names, with "x AS y" reduced to "y".
func (f Fields) Names() []string {
	names := make([]string, 0, len(f.fields))
	for _, field := range f.fields {
		name := aliasPrefix.ReplaceAllString(field, "")
		names = append(names, strings.Trim(name, "`"))
	}
	return names
}

// Tables is the source of a statement, including any JOINs.
type Tables struct {
	Clause
}

func From(source string) Tables {
	return Tables{NewClause("FROM", source)}
}

// Table names a single table without the FROM keyword, as UPDATE and
// INSERT INTO need it.
func Table(name string) Tables {
	return Tables{NewClause("", QuoteIdent(name))}
}

// Filter restricts a statement (WHERE ...).
type Filter struct {
	Clause
}

func Where(condition string, args ...any) Filter {
	return Filter{NewClause("WHERE", condition, args...)}
}

func NoFilter() Filter {
	return Filter{}
}

// And combines two filters. An empty side yields the other side unchanged.
func (f Filter) And(other Filter) Filter {
	if f.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return f
	}
	args := append(append([]any{}, f.args...), other.args...)
	return Where(fmt.Sprintf("(%s) AND (%s)", f.text, other.text), args...)
}

func Equal(column string, value any) Filter {
	return Where(column+" = ?", value)
}

// In matches column against a set of values. An empty set matches nothing.
func In(column string, values ...any) Filter {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return Where(fmt.Sprintf("%s IN (%s)", column, marks), values...)
}

// Order is an ORDER BY constraint.
type Order struct {
	Clause
}

func OrderBy(expression string) Order {
	return Order{NewClause("ORDER BY", expression)}
}

func NoOrder() Order {
	return Order{}
}

func Limit(n int) Clause {
	return NewClause("LIMIT", "?", n)
}

// Assignment is one column value of a row being written.
type Assignment struct {
	Column string
	Value  any
}

// Row is an ordered list of column values. A nil value is written as NULL.
type Row []Assignment

func (r Row) Add(column string, value any) Row {
	return append(r, Assignment{Column: column, Value: value})
}

func (r Row) Columns() []string {
	columns := make([]string, 0, len(r))
	for _, a := range r {
		columns = append(columns, a.Column)
	}
	return columns
}

// Get returns the value assigned to column and whether it is present.
func (r Row) Get(column string) (any, bool) {
	for _, a := range r {
		if a.Column == column {
			return a.Value, true
		}
	}
	return nil, false
}

const (
	ActionSet    = "SET"
	ActionValues = "VALUES"
)

// Values are the column values set by UPDATE (SET a = ?) or INSERT
// ((a) VALUES (?)).
type Values struct {
	Clause
}

func NewValues(action string, row Row) (Values, error) {
	if len(row) == 0 {
		return Values{}, fmt.Errorf("no values to %v", strings.ToLower(action))
	}

	args := make([]any, 0, len(row))
	for _, a := range row {
		args = append(args, a.Value)
	}

	switch action {
	case ActionSet:
		assignments := make([]string, 0, len(row))
		for _, a := range row {
			assignments = append(assignments, QuoteIdent(a.Column)+" = ?")
		}
		return Values{NewClause("SET", strings.Join(assignments, ", "), args...)}, nil

	case ActionValues:
		columns := make([]string, 0, len(row))
		for _, a := range row {
			columns = append(columns, QuoteIdent(a.Column))
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", ")
		text := fmt.Sprintf("(%s) VALUES (%s)", strings.Join(columns, ", "), marks)
		return Values{NewClause("", text, args...)}, nil
	}

	return Values{}, fmt.Errorf("unknown action '%v'", action)
}
