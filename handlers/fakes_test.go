package handlers_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secconfdb/database"
	"secconfdb/handlers"
	"secconfdb/middleware"
	"secconfdb/model"
	"secconfdb/query"
	"secconfdb/router"
)

const testSign = "test-sign"

type write struct {
	table string
	id    int64
	row   query.Row
}

type fakeCatalog struct {
	mu sync.Mutex

	tags         []model.Tag
	deadlines    []model.Event
	upcoming     []model.Event
	recent       []model.Event
	mostRecent   []model.Event
	conferences  []model.Conference
	events       map[string][]model.Event
	locations    []model.Location
	meetingTypes []model.MeetingType
	tables       map[string]model.Table

	pingErr  error
	writeErr error

	filters [][]int
	created []write
	updated []write
	nextID  int64
}

func newFakeCatalog() *fakeCatalog {
	parent := 2
	meetingType := 1
	ccs := model.Event{
		Instance: 11, URL: "https://www.sigsac.org/ccs/CCS2012/", ConferenceID: 4,
		Abbreviation: "CCS", Name: "Computer and Communications Security",
		StartDate: day(2012, 10, 16), EndDate: day(2012, 10, 18),
		Deadline: ptr(day(2012, 5, 4)), ExtendedDeadline: ptr(day(2012, 5, 11)),
		LocationID: 2, Location: "Raleigh", Region: "North Carolina", Country: "US",
	}
	pets := model.Event{
		Instance: 12, ConferenceID: 5, Abbreviation: "PETS", Name: "Privacy Enhancing Technologies",
		StartDate: day(2012, 7, 11), EndDate: day(2012, 7, 13),
		Deadline: ptr(day(2012, 2, 20)), PosterDeadline: ptr(day(2012, 5, 1)),
		LocationID: 3, Location: "Vigo", Country: "ES",
	}

	return &fakeCatalog{
		tags: []model.Tag{{ID: 1, Name: "crypto"}, {ID: 2, Name: "privacy"}, {ID: 3, Name: "security"}},
		deadlines:  []model.Event{ccs, pets},
		upcoming:   []model.Event{pets, ccs},
		recent:     []model.Event{},
		mostRecent: []model.Event{pets, ccs},
		conferences: []model.Conference{
			{ID: 4, ParentID: &parent, Name: "Computer and Communications Security", Abbreviation: "CCS",
				TypeID: &meetingType, TagIDs: []int{3}, Tags: []string{}},
			{ID: 5, Name: "Privacy Enhancing Technologies", Abbreviation: "PETS", TagIDs: []int{2}, Tags: []string{}},
			{ID: 6, Name: "A workshop without events", Abbreviation: "EMPTY", TagIDs: []int{}, Tags: []string{}},
		},
		events: map[string][]model.Event{"CCS": {ccs}, "PETS": {pets}},
		locations: []model.Location{
			{ID: 2, Name: "Raleigh", Region: "North Carolina", Country: "US"},
			{ID: 3, Name: "Vigo", Country: "ES"},
		},
		meetingTypes: []model.MeetingType{{ID: 1, Name: "Conference"}, {ID: 3, Name: "Workshop"}},
		tables: map[string]model.Table{
			"Tags": {Name: "Tags", Key: "tag", Columns: []string{"tag", "name"},
				Rows: [][]string{{"1", "crypto"}, {"2", "privacy"}, {"3", "security"}}},
		},
		nextID: 100,
	}
}

func (f *fakeCatalog) Ping(context.Context) error { return f.pingErr }

func (f *fakeCatalog) Tags(_ context.Context, names []string) ([]model.Tag, error) {
	if names == nil {
		return f.tags, nil
	}
	tags := []model.Tag{}
	for _, tag := range f.tags {
		for _, name := range names {
			if tag.Name == name {
				tags = append(tags, tag)
			}
		}
	}
	return tags, nil
}

func (f *fakeCatalog) filtered(tagIDs []int, events []model.Event) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, tagIDs)
	return events, nil
}

func (f *fakeCatalog) Deadlines(_ context.Context, tagIDs []int) ([]model.Event, error) {
	return f.filtered(tagIDs, f.deadlines)
}

func (f *fakeCatalog) Upcoming(_ context.Context, tagIDs []int) ([]model.Event, error) {
	return f.filtered(tagIDs, f.upcoming)
}

func (f *fakeCatalog) Recent(_ context.Context, tagIDs []int) ([]model.Event, error) {
	return f.filtered(tagIDs, f.recent)
}

func (f *fakeCatalog) MostRecent(context.Context) ([]model.Event, error) { return f.mostRecent, nil }

func (f *fakeCatalog) Event(_ context.Context, instance int) (model.Event, error) {
	for _, events := range f.events {
		for _, event := range events {
			if event.Instance == instance {
				return event, nil
			}
		}
	}
	for _, w := range f.created {
		if w.table == "ConferenceInstances" && w.id == int64(instance) {
			return model.Event{Instance: instance, Abbreviation: "CCS"}, nil
		}
	}
	return model.Event{}, fmt.Errorf("event %v: %w", instance, database.ErrNotFound)
}

func (f *fakeCatalog) ConferenceByID(_ context.Context, id int) (model.Conference, error) {
	for _, conf := range f.conferences {
		if conf.ID == id {
			return conf, nil
		}
	}
	return model.Conference{}, fmt.Errorf("conference %v: %w", id, database.ErrNotFound)
}

func (f *fakeCatalog) ConferenceEvents(_ context.Context, abbreviation string) (model.Conference, []model.Event, error) {
	for _, conf := range f.conferences {
		if conf.Abbreviation == abbreviation {
			events := f.events[abbreviation]
			if events == nil {
				events = []model.Event{}
			}
			return conf, events, nil
		}
	}
	return model.Conference{}, nil, fmt.Errorf("conference %v: %w", abbreviation, database.ErrNotFound)
}

func (f *fakeCatalog) Conferences(context.Context) ([]model.Conference, error) {
	conferences := make([]model.Conference, len(f.conferences))
	copy(conferences, f.conferences)
	return conferences, nil
}

func (f *fakeCatalog) Locations(context.Context) ([]model.Location, error) { return f.locations, nil }

func (f *fakeCatalog) MeetingTypes(context.Context) ([]model.MeetingType, error) {
	return f.meetingTypes, nil
}

func (f *fakeCatalog) SimpleTable(_ context.Context, table string) (model.Table, error) {
	t, ok := f.tables[table]
	if !ok {
		return model.Table{}, fmt.Errorf("%v: %w", table, database.ErrUnknownTable)
	}
	return t, nil
}

func (f *fakeCatalog) Create(_ context.Context, table string, row query.Row) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.nextID++
	f.created = append(f.created, write{table: table, id: f.nextID, row: row})
	return f.nextID, nil
}

func (f *fakeCatalog) Update(_ context.Context, table string, id int64, row query.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updated = append(f.updated, write{table: table, id: id, row: row})
	return nil
}

type fakeAccounts struct {
	mu    sync.Mutex
	users map[string]model.UserData
	edits []model.Edit
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]model.UserData{
		"alice": {Login: "alice", HashedPassword: "secret", Role: model.RoleEditor},
		"carol": {Login: "carol", HashedPassword: "secret", Role: "reader"},
	}}
}

func (f *fakeAccounts) Authenticate(_ context.Context, login, password string) (model.UserData, error) {
	user, ok := f.users[login]
	if !ok || user.HashedPassword != password {
		return model.UserData{}, fmt.Errorf("%v: %w", login, database.ErrUnauthorized)
	}
	return user, nil
}

func (f *fakeAccounts) RecordEdit(_ context.Context, edit model.Edit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return nil
}

func newApp(catalog *fakeCatalog, accounts *fakeAccounts) *fiber.App {
	log := zap.NewNop()
	app := router.NewApp(log)
	h := handlers.New(catalog, accounts, log, handlers.Options{
		DefaultTags: []string{"security", "privacy", "crypto"},
		Sign:        testSign,
		TokenTTL:    time.Hour,
	})
	router.SetupRoutes(app, h, accounts, testSign, log)
	return app
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func editor() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:secret"))
}

func get(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAuthorization, editor())
	return req
}

// postEdit posts an editing form the way a browser would after loading an
// edit page: with the editor's credentials and the issued CSRF token.
func postEdit(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	token := csrfToken(t, app)

	withToken := url.Values{}
	for key, values := range form {
		withToken[key] = values
	}
	withToken.Set(middleware.CSRF_FIELD, token)

	req := postForm(path, withToken)
	req.AddCookie(&http.Cookie{Name: middleware.CSRF_COOKIE, Value: token})
	return do(t, app, req)
}

func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	req := get("/edit/conferences")
	req.Header.Set(fiber.HeaderAuthorization, editor())
	res := do(t, app, req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	for _, cookie := range res.Cookies() {
		if cookie.Name == middleware.CSRF_COOKIE {
			return cookie.Value
		}
	}
	t.Fatal("no csrf cookie issued")
	return ""
}

func postJSON(method, path, body, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func document(t *testing.T, res *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	return doc
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}
