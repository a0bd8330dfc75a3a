package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"secconfdb/model"
	"secconfdb/query"
)

// Key columns of the tables that can be written through the editor.
var writableTables = map[string]string{
	"Conferences":         "conference",
	"ConferenceInstances": "instance",
	"Countries":           "country",
	"Regions":             "region",
	"Locations":           "location",
	"Tags":                "tag",
	"MeetingTypes":        "meeting-type",
}

// SimpleTables are the id -> text lookup tables edited as plain grids.
var SimpleTables = []string{"Countries", "Regions", "Locations", "Tags", "MeetingTypes"}

func IsSimpleTable(table string) bool {
	for _, name := range SimpleTables {
		if name == table {
			return true
		}
	}
	return false
}

// TableKey returns the primary key column of a writable table.
func TableKey(table string) (string, bool) {
	key, ok := writableTables[table]
	return key, ok
}

// Catalog reads and writes the conference catalog in MySQL.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Tags returns the tags with the given names, or every tag when names is nil.
func (c *Catalog) Tags(ctx context.Context, names []string) ([]model.Tag, error) {
	where := query.NoFilter()
	if names != nil {
		values := make([]any, 0, len(names))
		for _, name := range names {
			values = append(values, name)
		}
		where = query.In("name", values...)
	}
	return c.tags(ctx, where)
}

func (c *Catalog) TagsByID(ctx context.Context, ids []int) ([]model.Tag, error) {
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	return c.tags(ctx, query.In("tag", values...))
}

func (c *Catalog) tags(ctx context.Context, where query.Filter) ([]model.Tag, error) {
	rows, err := c.query(ctx, query.Select{
		Fields: query.TagFields(),
		Source: query.TagTable(),
		Where:  where,
		Order:  query.OrderBy("name"),
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("cannot read tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (c *Catalog) Deadlines(ctx context.Context, tagIDs []int) ([]model.Event, error) {
	return c.events(ctx, query.Events(query.UpcomingDeadlines().And(query.Tags(tagIDs)), query.Deadline()))
}

func (c *Catalog) Upcoming(ctx context.Context, tagIDs []int) ([]model.Event, error) {
	return c.events(ctx, query.Events(query.Upcoming().And(query.Tags(tagIDs)), query.StartDate(false)))
}

func (c *Catalog) Recent(ctx context.Context, tagIDs []int) ([]model.Event, error) {
	return c.events(ctx, query.Events(query.Recent().And(query.Tags(tagIDs)), query.StartDate(true)))
}

// MostRecent returns the latest instance of every conference, stalest
// first, which is the order in which they need updating.
func (c *Catalog) MostRecent(ctx context.Context) ([]model.Event, error) {
	return c.events(ctx, query.Events(query.MostRecentInstance(), query.StartDate(false)))
}

func (c *Catalog) Event(ctx context.Context, instance int) (model.Event, error) {
	s := query.Events(query.Equal("instance", instance), query.NoOrder())
	s.Limit = query.Limit(1)
	events, err := c.events(ctx, s)
	if err != nil {
		return model.Event{}, err
	}
	if len(events) == 0 {
		return model.Event{}, fmt.Errorf("event %v: %w", instance, ErrNotFound)
	}
	return events[0], nil
}

func (c *Catalog) events(ctx context.Context, s query.Select) ([]model.Event, error) {
	rows, err := c.query(ctx, s)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			e                                      model.Event
			url, region, regionCode, proc, confURL sql.NullString
			start, end                             sql.NullTime
			deadline, extended, poster             sql.NullTime
		)
		err := rows.Scan(
			&e.Instance, &url, &e.ConferenceID, &e.Abbreviation, &e.Name,
			&start, &end,
			&deadline, &extended, &poster,
			&e.LocationID, &e.Location, &region, &regionCode, &e.Country,
			&proc, &confURL,
		)
		if err != nil {
			return nil, fmt.Errorf("cannot read event: %w", err)
		}

		e.URL = url.String
		e.Region = region.String
		e.RegionCode = regionCode.String
		e.Proceedings = proc.String
		e.ConferenceURL = confURL.String
		e.StartDate = start.Time
		e.EndDate = end.Time
		e.Deadline = optionalDate(deadline)
		e.ExtendedDeadline = optionalDate(extended)
		e.PosterDeadline = optionalDate(poster)

		events = append(events, e)
	}
	return events, rows.Err()
}

func (c *Catalog) ConferenceByID(ctx context.Context, id int) (model.Conference, error) {
	return c.conference(ctx, query.Equal("conference", id))
}

func (c *Catalog) ConferenceByAbbreviation(ctx context.Context, abbreviation string) (model.Conference, error) {
	return c.conference(ctx, query.Equal("abbreviation", abbreviation))
}

func (c *Catalog) conference(ctx context.Context, where query.Filter) (model.Conference, error) {
	conferences, err := c.conferences(ctx, where)
	if err != nil {
		return model.Conference{}, err
	}
	if len(conferences) == 0 {
		return model.Conference{}, fmt.Errorf("conference: %w", ErrNotFound)
	}
	return conferences[0], nil
}

// ConferenceEvents returns a conference, with its parent and tag names
// resolved, and all its instances, newest first.
func (c *Catalog) ConferenceEvents(ctx context.Context, abbreviation string) (model.Conference, []model.Event, error) {
	conf, err := c.ConferenceByAbbreviation(ctx, abbreviation)
	if err != nil {
		return model.Conference{}, nil, err
	}

	if conf.ParentID != nil {
		parent, err := c.ConferenceByID(ctx, *conf.ParentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return model.Conference{}, nil, err
		}
		if err == nil {
			conf.Parent = &parent
		}
	}

	if len(conf.TagIDs) > 0 {
		tags, err := c.TagsByID(ctx, conf.TagIDs)
		if err != nil {
			return model.Conference{}, nil, err
		}
		for _, tag := range tags {
			conf.Tags = append(conf.Tags, tag.Name)
		}
	}

	events, err := c.events(ctx, query.Events(query.Equal("ConferenceInstances.conference", conf.ID), query.StartDate(true)))
	if err != nil {
		return model.Conference{}, nil, err
	}

	return conf, events, nil
}

func (c *Catalog) Conferences(ctx context.Context) ([]model.Conference, error) {
	return c.conferences(ctx, query.NoFilter())
}

func (c *Catalog) conferences(ctx context.Context, where query.Filter) ([]model.Conference, error) {
	rows, err := c.query(ctx, query.Select{
		Fields: query.ConferenceFields(),
		Source: query.ConferenceTable(),
		Where:  where,
		Order:  query.OrderBy("abbreviation"),
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conferences := []model.Conference{}
	for rows.Next() {
		var (
			conf                   model.Conference
			parent, typeID         sql.NullInt64
			description, url, tags sql.NullString
		)
		err := rows.Scan(&conf.ID, &parent, &conf.Name, &conf.Abbreviation, &description, &url, &typeID, &tags)
		if err != nil {
			return nil, fmt.Errorf("cannot read conference: %w", err)
		}

		conf.ParentID = optionalInt(parent)
		conf.TypeID = optionalInt(typeID)
		conf.Description = description.String
		conf.URL = url.String
		conf.TagIDs = model.ParseTagIDs(tags.String)
		conf.Tags = []string{}

		conferences = append(conferences, conf)
	}
	return conferences, rows.Err()
}

func (c *Catalog) Locations(ctx context.Context) ([]model.Location, error) {
	rows, err := c.query(ctx, query.Select{
		Fields: query.LocationFields(),
		Source: query.LocationTables(),
		Order:  query.ByLocation(),
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		var (
			l                  model.Location
			region, regionCode sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Name, &region, &regionCode, &l.Country); err != nil {
			return nil, fmt.Errorf("cannot read location: %w", err)
		}
		l.Region = region.String
		l.RegionCode = regionCode.String
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (c *Catalog) MeetingTypes(ctx context.Context) ([]model.MeetingType, error) {
	rows, err := c.query(ctx, query.Select{
		Fields: query.MeetingTypeFields(),
		Source: query.MeetingTypeTable(),
		Order:  query.OrderBy("name"),
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []model.MeetingType{}
	for rows.Next() {
		var m model.MeetingType
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("cannot read meeting type: %w", err)
		}
		types = append(types, m)
	}
	return types, rows.Err()
}

// SimpleTable reads a whole lookup table as text.
func (c *Catalog) SimpleTable(ctx context.Context, table string) (model.Table, error) {
	if !IsSimpleTable(table) {
		return model.Table{}, fmt.Errorf("%v: %w", table, ErrUnknownTable)
	}
	key := writableTables[table]

	rows, err := c.query(ctx, query.Select{
		Source: query.From(query.QuoteIdent(table)),
		Order:  query.OrderBy(query.QuoteIdent(key)),
	})
	if err != nil {
		return model.Table{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return model.Table{}, fmt.Errorf("cannot read columns of %v: %w", table, err)
	}

	result := model.Table{Name: table, Key: key, Columns: columns, Rows: [][]string{}}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return model.Table{}, fmt.Errorf("cannot read row of %v: %w", table, err)
		}

		row := make([]string, len(columns))
		for i, value := range values {
			row[i] = value.String
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// Create inserts a row and returns its id.
func (c *Catalog) Create(ctx context.Context, table string, row query.Row) (int64, error) {
	if _, ok := writableTables[table]; !ok {
		return 0, fmt.Errorf("%v: %w", table, ErrUnknownTable)
	}
	values, err := query.NewValues(query.ActionValues, row)
	if err != nil {
		return 0, err
	}

	sqlText, args := query.Insert{Table: query.Table(table), Values: values}.Build()
	result, err := c.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("cannot insert into %v: %w", table, classify(err))
	}
	return result.LastInsertId()
}

// Update changes the row of table whose key is id.
func (c *Catalog) Update(ctx context.Context, table string, id int64, row query.Row) error {
	key, ok := writableTables[table]
	if !ok {
		return fmt.Errorf("%v: %w", table, ErrUnknownTable)
	}
	values, err := query.NewValues(query.ActionSet, row)
	if err != nil {
		return err
	}

	sqlText, args := query.Update{
		Table:  query.Table(table),
		Values: values,
		Where:  query.Equal(query.QuoteIdent(key), id),
	}.Build()
	if _, err := c.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("cannot update %v %v: %w", table, id, classify(err))
	}
	return nil
}

func (c *Catalog) query(ctx context.Context, s query.Select) (*sql.Rows, error) {
	sqlText, args := s.Build()
	rows, err := c.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", classify(err))
	}
	return rows, nil
}

func optionalDate(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	date := t.Time
	return &date
}

func optionalInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
