package query

// Select gets data from the database. Empty fields select "*".
type Select struct {
	Fields Fields
	Source Tables
	Where  Filter
	Order  Order
	Limit  Clause
}

// Events selects conference instances joined with their conference and
// location.
func Events(where Filter, order Order) Select {
	return Select{
		Fields: EventFields(),
		Source: EventTables(),
		Where:  where,
		Order:  order,
	}
}

func (s Select) Build() (string, []any) {
	fields := s.Fields
	if fields.IsEmpty() {
		fields = NewFields()
	}
	return Concat("SELECT", fields, s.Source, s.Where, s.Order, s.Limit)
}

func (s Select) String() string {
	sql, _ := s.Build()
	return sql
}

// Update changes rows of a table.
type Update struct {
	Table  Tables
	Values Values
	Where  Filter
}

func (u Update) Build() (string, []any) {
	return Concat("UPDATE", u.Table, u.Values, u.Where)
}

func (u Update) String() string {
	sql, _ := u.Build()
	return sql
}

// Insert adds a row to a table.
type Insert struct {
	Table  Tables
	Values Values
}

func (i Insert) Build() (string, []any) {
	return Concat("INSERT INTO", i.Table, i.Values)
}

func (i Insert) String() string {
	sql, _ := i.Build()
	return sql
}
