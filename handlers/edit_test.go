package handlers_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secconfdb/database"
	"secconfdb/middleware"
	"secconfdb/model"
)

func TestEditRequiresEditor(t *testing.T) {
	app := newApp(newFakeCatalog(), newFakeAccounts())

	tests := []struct {
		description  string
		login        string
		expectedCode int
	}{
		{"anonymous", "", fiber.StatusUnauthorized},
		{"reader account", "carol:secret", fiber.StatusUnauthorized},
		{"wrong password", "alice:guess", fiber.StatusUnauthorized},
		{"editor", "alice:secret", fiber.StatusOK},
	}

	for _, test := range tests {
		req := get("/edit/conferences")
		if test.login != "" {
			req.SetBasicAuth(splitLogin(test.login))
		}
		res := do(t, app, req)
		assert.Equalf(t, test.expectedCode, res.StatusCode, test.description)
		if res.StatusCode == fiber.StatusUnauthorized {
			assert.Equalf(t, `Basic realm="SECCONFDB"`, res.Header.Get(fiber.HeaderWWWAuthenticate), test.description)
		}
	}
}

func splitLogin(s string) (string, string) {
	login, password, _ := strings.Cut(s, ":")
	return login, password
}

func TestEditPages(t *testing.T) {
	app := newApp(newFakeCatalog(), newFakeAccounts())

	tests := []Test{
		{description: "conference list", route: "/edit/conferences", expectedCode: fiber.StatusOK},
		{description: "conference", route: "/edit/conference/CCS", expectedCode: fiber.StatusOK},
		{description: "conference without events", route: "/edit/conference/EMPTY", expectedCode: fiber.StatusOK},
		{description: "unknown conference", route: "/edit/conference/NOPE", expectedCode: fiber.StatusNotFound},
		{description: "lookup table", route: "/edit/simple/Tags", expectedCode: fiber.StatusOK},
		{description: "unknown lookup table", route: "/edit/simple/Users", expectedCode: fiber.StatusNotFound},
	}

	for _, test := range tests {
		req := get(test.route)
		req.Header.Set(fiber.HeaderAuthorization, editor())
		res := do(t, app, req)
		assert.Equalf(t, test.expectedCode, res.StatusCode, test.description)
	}
}

func TestEditConferencePage(t *testing.T) {
	app := newApp(newFakeCatalog(), newFakeAccounts())

	req := get("/edit/conference/CCS")
	req.Header.Set(fiber.HeaderAuthorization, editor())
	res := do(t, app, req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	doc := document(t, res)
	assert.Equal(t, "Computer and Communications Security", doc.Find(`#update-conference input[name="name"]`).AttrOr("value", ""))
	assert.Equal(t, "1", doc.Find(`#update-conference select[name="type"] option[selected]`).AttrOr("value", ""))

	event := doc.Find("#events form").First()
	assert.Equal(t, "11", event.Find(`input[name="id"]`).AttrOr("value", ""))
	assert.Equal(t, "2012-10-16", event.Find(`input[name="start"]`).AttrOr("value", ""))
	assert.Equal(t, "", event.Find(`input[name="poster"]`).AttrOr("value", "missing"))
	assert.Equal(t, "2", event.Find(`select[name="location"] option[selected]`).AttrOr("value", ""))
	assert.Equal(t, "4", doc.Find(`#create-event input[name="conference"]`).AttrOr("value", ""))
}

func TestEditConferenceListShowsTagNames(t *testing.T) {
	app := newApp(newFakeCatalog(), newFakeAccounts())

	req := get("/edit/conferences")
	req.Header.Set(fiber.HeaderAuthorization, editor())
	res := do(t, app, req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	doc := document(t, res)
	rows := doc.Find("#conferences tr")
	require.Equal(t, 4, rows.Length())
	assert.Equal(t, "security", rows.Eq(1).Find("td").Eq(2).Text())
	assert.Equal(t, 5, doc.Find(`a[href^="/edit/simple/"]`).Length())
}

func TestEditFormsCarryCSRFToken(t *testing.T) {
	app := newApp(newFakeCatalog(), newFakeAccounts())

	req := get("/edit/conference/CCS")
	req.Header.Set(fiber.HeaderAuthorization, editor())
	res := do(t, app, req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var token string
	for _, cookie := range res.Cookies() {
		if cookie.Name == middleware.CSRF_COOKIE {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	doc := document(t, res)
	forms := doc.Find("form")
	require.Equal(t, 3, forms.Length())
	forms.Each(func(_ int, form *goquery.Selection) {
		assert.Equal(t, token, form.Find(`input[name="_csrf"]`).AttrOr("value", ""))
	})
}

func TestEditPostRequiresCSRFToken(t *testing.T) {
	tests := []struct {
		description string
		token       string
		cookie      string
	}{
		{"no token", "", ""},
		{"token without cookie", "forged", ""},
		{"token not matching cookie", "forged", "other"},
		{"token never issued", "forged", "forged"},
	}

	for _, test := range tests {
		catalog := newFakeCatalog()
		app := newApp(catalog, newFakeAccounts())

		form := url.Values{"table name": {"Tags"}, "name": {"web"}}
		if test.token != "" {
			form.Set(middleware.CSRF_FIELD, test.token)
		}
		req := postForm("/edit/create", form)
		if test.cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.CSRF_COOKIE, Value: test.cookie})
		}

		res := do(t, app, req)
		assert.Equalf(t, fiber.StatusForbidden, res.StatusCode, test.description)
		assert.Emptyf(t, catalog.created, test.description)
	}
}

func TestCreateEvent(t *testing.T) {
	catalog := newFakeCatalog()
	accounts := newFakeAccounts()
	app := newApp(catalog, accounts)

	form := url.Values{}
	form.Set("conference", "4")
	form.Set("abbreviation", "CCS")
	form.Set("start", "2013-11-4")
	form.Set("end", "2013-11-08")
	form.Set("deadline", "")
	form.Set("url", "http://www.sigsac.org/ccs/CCS2013/")
	form.Set("location", "2")

	res := postEdit(t, app, "/edit/conference/create_event", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/edit/conference/CCS", res.Header.Get(fiber.HeaderLocation))

	require.Len(t, catalog.created, 1)
	created := catalog.created[0]
	assert.Equal(t, "ConferenceInstances", created.table)
	value, _ := created.row.Get("startDate")
	assert.Equal(t, "2013-11-04", value)
	value, _ = created.row.Get("deadline")
	assert.Nil(t, value)
	value, _ = created.row.Get("conference")
	assert.Equal(t, 4, value)

	require.Len(t, accounts.edits, 1)
	assert.Equal(t, "alice", accounts.edits[0].Editor)
	assert.Equal(t, model.ActionCreate, accounts.edits[0].Action)
	assert.Equal(t, created.id, accounts.edits[0].RowID)
}

func TestCreateEventRejectsBadInput(t *testing.T) {
	tests := []struct {
		description string
		field       string
		value       string
		message     string
	}{
		{"malformed date", "start", "16/10/2012", "is not a valid date"},
		{"impossible date", "deadline", "2012-13-45", "is not a valid date"},
		{"script url", "url", "javascript:alert(1)", "is not a valid URL"},
		{"url with quotes", "proc", "http://x.org/'", "is not a valid URL"},
		{"missing location", "location", "", "location is required"},
		{"missing conference", "conference", "", "conference is required"},
	}

	for _, test := range tests {
		catalog := newFakeCatalog()
		app := newApp(catalog, newFakeAccounts())

		form := url.Values{}
		form.Set("conference", "4")
		form.Set("abbreviation", "CCS")
		form.Set("start", "2013-11-04")
		form.Set("location", "2")
		form.Set(test.field, test.value)

		res := postEdit(t, app, "/edit/conference/create_event", form)
		assert.Equalf(t, fiber.StatusBadRequest, res.StatusCode, test.description)
		assert.Containsf(t, body(t, res), test.message, test.description)
		assert.Emptyf(t, catalog.created, test.description)
	}
}

func TestUpdateEvent(t *testing.T) {
	catalog := newFakeCatalog()
	app := newApp(catalog, newFakeAccounts())

	form := url.Values{}
	form.Set("id", "11")
	form.Set("start", "2012-10-16")
	form.Set("end", "2012-10-18")
	form.Set("proc", "http://dl.acm.org/citation.cfm")
	form.Set("location", "2")

	res := postEdit(t, app, "/edit/conference/update_event", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/edit/conference/CCS", res.Header.Get(fiber.HeaderLocation))

	require.Len(t, catalog.updated, 1)
	assert.Equal(t, int64(11), catalog.updated[0].id)
	value, _ := catalog.updated[0].row.Get("proceedings")
	assert.Equal(t, "http://dl.acm.org/citation.cfm", value)
	_, ok := catalog.updated[0].row.Get("conference")
	assert.False(t, ok)
}

func TestUpdateEventDeniedByDatabase(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.writeErr = fmt.Errorf("cannot update: %w", database.ErrUnauthorized)
	accounts := newFakeAccounts()
	app := newApp(catalog, accounts)

	form := url.Values{}
	form.Set("id", "11")
	form.Set("abbreviation", "CCS")
	form.Set("location", "2")

	res := postEdit(t, app, "/edit/conference/update_event", form)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, `Basic realm="SECCONFDB"`, res.Header.Get(fiber.HeaderWWWAuthenticate))
	assert.Empty(t, accounts.edits)
}

func TestUpdateConference(t *testing.T) {
	catalog := newFakeCatalog()
	app := newApp(catalog, newFakeAccounts())

	form := url.Values{}
	form.Set("id", "4")
	form.Set("name", "Computer and <b>Communications</b> Security")
	form.Set("abbrev", "CCS")
	form.Set("desc", "")
	form.Set("type", "1")
	form.Set("parent", "")
	form.Set("tags", "security, crypto, unknown")

	res := postEdit(t, app, "/edit/conference/update_conference", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/edit/conference/CCS", res.Header.Get(fiber.HeaderLocation))

	require.Len(t, catalog.updated, 1)
	row := catalog.updated[0].row
	assert.Equal(t, "Conferences", catalog.updated[0].table)
	value, _ := row.Get("name")
	assert.Equal(t, "Computer and Communications Security", value)
	value, _ = row.Get("tags")
	assert.Equal(t, "1,3", value)
	value, _ = row.Get("parent")
	assert.Nil(t, value)
	value, _ = row.Get("meeting-type")
	assert.Equal(t, 1, value)
}

func TestUpdateConferenceValidation(t *testing.T) {
	tests := []struct {
		description string
		field       string
		value       string
	}{
		{"bad abbreviation", "abbrev", "CCS 2012"},
		{"tags with digits", "tags", "security2"},
		{"own parent", "parent", "4"},
		{"missing name", "name", ""},
	}

	for _, test := range tests {
		catalog := newFakeCatalog()
		app := newApp(catalog, newFakeAccounts())

		form := url.Values{}
		form.Set("id", "4")
		form.Set("name", "Computer and Communications Security")
		form.Set("abbrev", "CCS")
		form.Set(test.field, test.value)

		res := postEdit(t, app, "/edit/conference/update_conference", form)
		assert.Equalf(t, fiber.StatusBadRequest, res.StatusCode, test.description)
		assert.Emptyf(t, catalog.updated, test.description)
	}
}

func TestCreateConference(t *testing.T) {
	catalog := newFakeCatalog()
	app := newApp(catalog, newFakeAccounts())

	form := url.Values{}
	form.Set("name", "Financial Cryptography")
	form.Set("abbrev", "FC")
	form.Set("url", "http://ifca.ai/")
	form.Set("tags", "crypto")

	res := postEdit(t, app, "/edit/create_conference", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/edit/conference/FC", res.Header.Get(fiber.HeaderLocation))

	require.Len(t, catalog.created, 1)
	assert.Equal(t, "Conferences", catalog.created[0].table)
	value, _ := catalog.created[0].row.Get("permanentURL")
	assert.Equal(t, "http://ifca.ai/", value)
	value, _ = catalog.created[0].row.Get("tags")
	assert.Equal(t, "1", value)
}

func TestSimpleTableEdits(t *testing.T) {
	catalog := newFakeCatalog()
	app := newApp(catalog, newFakeAccounts())

	form := url.Values{}
	form.Set("table name", "Tags")
	form.Set("table key", "tag")
	form.Set("tag", "2")
	form.Set("name", "privacy")

	res := postEdit(t, app, "/edit/update", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/edit/simple/Tags", res.Header.Get(fiber.HeaderLocation))
	require.Len(t, catalog.updated, 1)
	assert.Equal(t, int64(2), catalog.updated[0].id)
	assert.Equal(t, []string{"name"}, catalog.updated[0].row.Columns())

	form = url.Values{}
	form.Set("table name", "Countries")
	form.Set("code", "NZ")
	form.Set("name", "New Zealand")
	form.Set("country", "")

	res = postEdit(t, app, "/edit/create", form)
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	require.Len(t, catalog.created, 1)
	assert.Equal(t, "Countries", catalog.created[0].table)
	assert.Equal(t, []string{"code", "name"}, catalog.created[0].row.Columns())
}

func TestSimpleTableRejectsBadInput(t *testing.T) {
	tests := []struct {
		description string
		form        url.Values
	}{
		{"unsafe text", url.Values{"table name": {"Tags"}, "name": {"x'; DROP TABLE Tags; --"}}},
		{"table outside the lookup tables", url.Values{"table name": {"Conferences"}, "name": {"x"}}},
		{"table name with quotes", url.Values{"table name": {"Tags`"}, "name": {"x"}}},
		{"column name with quotes", url.Values{"table name": {"Tags"}, "name`": {"x"}}},
		{"bad url", url.Values{"table name": {"Locations"}, "name": {"http://<script>"}}},
	}

	for _, test := range tests {
		catalog := newFakeCatalog()
		app := newApp(catalog, newFakeAccounts())

		res := postEdit(t, app, "/edit/create", test.form)
		assert.Equalf(t, fiber.StatusBadRequest, res.StatusCode, test.description)
		assert.Emptyf(t, catalog.created, test.description)
	}
}

func TestSimpleTableUpdateKeepsKey(t *testing.T) {
	tests := []struct {
		description string
		key         string
	}{
		{"other column as key", "name"},
		{"missing key", ""},
	}

	for _, test := range tests {
		catalog := newFakeCatalog()
		app := newApp(catalog, newFakeAccounts())

		form := url.Values{}
		form.Set("table name", "Tags")
		form.Set("table key", test.key)
		form.Set("tag", "12")
		form.Set("name", "1")

		res := postEdit(t, app, "/edit/update", form)
		assert.Equalf(t, fiber.StatusBadRequest, res.StatusCode, test.description)
		assert.Emptyf(t, catalog.updated, test.description)
	}
}

func TestConstraintViolationIsBadRequest(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.writeErr = fmt.Errorf("cannot insert: %w", database.ErrConstraint)
	app := newApp(catalog, newFakeAccounts())

	form := url.Values{"table name": {"Tags"}, "name": {"crypto"}}
	res := postEdit(t, app, "/edit/create", form)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
