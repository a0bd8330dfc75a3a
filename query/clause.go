package query

import (
	"strings"
)

// Part is anything that can be appended to a statement: it renders to SQL
// text and carries the arguments bound to its placeholders.
type Part interface {
	IsEmpty() bool
	String() string
	Args() []any
}

// Clause is a single SQL clause such as "WHERE a = ?" or "ORDER BY b".
// A clause without text is empty and contributes nothing to a statement.
type Clause struct {
	keyword string
	text    string
	args    []any
}

func NewClause(keyword, text string, args ...any) Clause {
	return Clause{keyword: keyword, text: strings.TrimSpace(text), args: args}
}

func (c Clause) IsEmpty() bool {
	return c.text == ""
}

func (c Clause) Text() string {
	return c.text
}

func (c Clause) String() string {
	if c.IsEmpty() {
		return ""
	}
	if c.keyword == "" {
		return c.text
	}
	return c.keyword + " " + c.text
}

func (c Clause) Args() []any {
	if c.IsEmpty() {
		return nil
	}
	return c.args
}

// Concat sums parts into one statement, skipping the empty ones.
func Concat(head string, parts ...Part) (string, []any) {
	sql := []string{head}
	args := []any{}
	for _, part := range parts {
		if part == nil || part.IsEmpty() {
			continue
		}
		sql = append(sql, part.String())
		args = append(args, part.Args()...)
	}
	return strings.Join(sql, " "), args
}

func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
