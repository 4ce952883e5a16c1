package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/worklog-service/internal/config"
	"github.com/Dan9191/worklog-service/internal/handler"
	"github.com/Dan9191/worklog-service/internal/models"
	"github.com/Dan9191/worklog-service/internal/repository"
	"github.com/Dan9191/worklog-service/internal/service"
	"github.com/Dan9191/worklog-service/internal/token"
	"github.com/Dan9191/worklog-service/internal/utils"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	validPassword = "Secret@123"
)

var (
	adminIdentity  = models.Identity{ID: uuid.New(), Username: "admin1", IsAdmin: true}
	memberIdentity = models.Identity{ID: uuid.New(), Username: "jane"}
)

type handlerTestDeps struct {
	mock   sqlmock.Sqlmock
	router http.Handler
	tokens *token.Manager
	hasher *utils.Argon2Hasher
}

func setupHandlerTest(t *testing.T) *handlerTestDeps {
	t.Helper()

	db, m, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, m.ExpectationsWereMet())
		db.Close()
	})

	log := logrus.New()
	log.SetOutput(io.Discard)
	tokens := token.NewManager(testSecret, time.Hour)
	hasher := utils.NewArgon2Hasher(utils.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1})
	svc := service.NewService(repository.NewRepository(db), hasher, tokens, log)
	cfg := &config.Config{Env: config.EnvTest, MetricsEnabled: true}

	return &handlerTestDeps{
		mock:   m,
		router: handler.NewRouter(handler.NewHandler(svc, log), tokens, cfg),
		tokens: tokens,
		hasher: hasher,
	}
}

func (d *handlerTestDeps) do(t *testing.T, method, path string, identity *models.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		tok, err := d.tokens.Issue(*identity)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)
	return rec
}

type errorResponse struct {
	Message string `json:"message"`
	Issues  *struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	} `json:"issues"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

var workLogColumns = []string{"id", "user_id", "username", "project_id", "project_name", "hours", "work_date", "notes"}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/auth/me", ""},
		{http.MethodGet, "/api/projects", ""},
		{http.MethodPost, "/api/projects", `{"name":"Acme"}`},
		{http.MethodGet, "/api/users", ""},
		{http.MethodPost, "/api/users", `{"username":"jane","password":"Secret@123"}`},
		{http.MethodGet, "/api/work-logs", ""},
		{http.MethodPost, "/api/work-logs", `{"hours":8}`},
		{http.MethodGet, "/api/work-logs/export", ""},
		{http.MethodDelete, "/api/work-logs/" + uuid.NewString(), ""},
	}

	for _, route := range routes {
		route := route
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			t.Parallel()
			d := setupHandlerTest(t)

			var body any
			if route.body != "" {
				body = route.body
			}
			rec := d.do(t, route.method, route.path, nil, body)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec).Message)
		})
	}
}

func TestAdminRoutesRejectMembers(t *testing.T) {
	t.Parallel()

	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/projects", map[string]string{"name": "Acme"}},
		{http.MethodGet, "/api/users", nil},
		{http.MethodPost, "/api/users", map[string]string{"username": "john", "password": validPassword}},
		{http.MethodDelete, "/api/work-logs/" + uuid.NewString(), nil},
	}

	for _, route := range routes {
		route := route
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			t.Parallel()
			d := setupHandlerTest(t)

			rec := d.do(t, route.method, route.path, &memberIdentity, route.body)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "forbidden", decodeError(t, rec).Message)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("Success returns token and identity", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		hash, err := d.hasher.Hash(validPassword)
		require.NoError(t, err)
		d.mock.ExpectQuery(q("FROM users")).
			WithArgs("admin1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hashed", "is_admin", "created_at"}).
				AddRow(adminIdentity.ID.String(), "admin1", hash, true, time.Now()))

		rec := d.do(t, http.MethodPost, "/api/auth/login", nil, models.LoginRequest{Username: "admin1", Password: validPassword})

		require.Equal(t, http.StatusOK, rec.Code)
		var res models.LoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		assert.Equal(t, adminIdentity, res.User)
		claims, err := d.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
	})

	t.Run("Validation issues are keyed by field", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodPost, "/api/auth/login", nil, models.LoginRequest{Username: "ab", Password: "password"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		require.NotNil(t, body.Issues)
		assert.Contains(t, body.Issues.FieldErrors, "username")
		assert.Contains(t, body.Issues.FieldErrors["password"], "must contain uppercase letter")
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodPost, "/api/auth/login", nil, `{"username":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeError(t, rec).Message)
	})

	t.Run("Trailing data after the object", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		for _, body := range []string{
			`{"username":"admin1","password":"Secret@123"}garbage`,
			`{"username":"admin1","password":"Secret@123"}{}`,
			`{"username":"admin1","password":"Secret@123"}}`,
		} {
			rec := d.do(t, http.MethodPost, "/api/auth/login", nil, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, "invalid request body", decodeError(t, rec).Message, body)
		}
	})

	t.Run("Unknown user", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		d.mock.ExpectQuery(q("FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hashed", "is_admin", "created_at"}))

		rec := d.do(t, http.MethodPost, "/api/auth/login", nil, models.LoginRequest{Username: "ghost", Password: validPassword})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decodeError(t, rec).Message)
	})
}

func TestMe(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	rec := d.do(t, http.MethodGet, "/api/auth/me", &memberIdentity, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, memberIdentity, got)
}

func TestAcmeScenario(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	id := uuid.New()
	d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM projects WHERE project_name = $1)")).
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	d.mock.ExpectQuery(q("INSERT INTO projects")).
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_name", "total_hours", "created_at"}).AddRow(id.String(), "Acme", "0.00", time.Now()))

	rec := d.do(t, http.MethodPost, "/api/projects", &adminIdentity, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.ProjectRef
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, models.ProjectRef{ID: id, Name: "Acme"}, created)

	// The member is refused before any uniqueness query runs.
	rec = d.do(t, http.MethodPost, "/api/projects", &memberIdentity, map[string]string{"name": "Acme"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM projects WHERE project_name = $1)")).
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rec = d.do(t, http.MethodPost, "/api/projects", &adminIdentity, map[string]string{"name": "Acme"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "project already exists", decodeError(t, rec).Message)
}

func TestListProjects(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	d.mock.ExpectQuery(q("FROM projects")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_name", "total_hours", "created_at"}).
			AddRow(uuid.NewString(), "Acme", "12.50", time.Now()))

	rec := d.do(t, http.MethodGet, "/api/projects", &memberIdentity, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var projects []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Acme", projects[0]["name"])
	assert.Equal(t, 12.5, projects[0]["totalHours"])
}

func TestUsers(t *testing.T) {
	t.Parallel()

	t.Run("Create omits password", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		id := uuid.New()
		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		d.mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), time.Now()))

		rec := d.do(t, http.MethodPost, "/api/users", &adminIdentity,
			models.CreateUserRequest{Username: "john", Password: validPassword, IsAdmin: true})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), validPassword)
		assert.NotContains(t, rec.Body.String(), "argon2")
		var got models.Identity
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.Identity{ID: id, Username: "john", IsAdmin: true}, got)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		rec := d.do(t, http.MethodPost, "/api/users", &adminIdentity,
			models.CreateUserRequest{Username: "john", Password: validPassword})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "username already exists", decodeError(t, rec).Message)
	})

	t.Run("List", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		d.mock.ExpectQuery(q("FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "is_admin", "created_at"}).
				AddRow(uuid.NewString(), "admin1", true, time.Now()).
				AddRow(uuid.NewString(), "jane", false, time.Now()))

		rec := d.do(t, http.MethodGet, "/api/users", &adminIdentity, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var users []map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
		require.Len(t, users, 2)
		assert.NotContains(t, users[0], "passwordHash")
	})
}

func TestListWorkLogs(t *testing.T) {
	t.Parallel()

	t.Run("Filters reach the query", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		projectID := uuid.New()
		d.mock.ExpectQuery(q("FROM work_logs w")).
			WithArgs("2024-03-01", "2024-03-31", projectID).
			WillReturnRows(sqlmock.NewRows(workLogColumns).
				AddRow(uuid.NewString(), memberIdentity.ID.String(), "jane", projectID.String(), "Acme", "7.50",
					time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), nil))

		rec := d.do(t, http.MethodGet, "/api/work-logs?from=2024-03-01&to=2024-03-31&projectId="+projectID.String(), &memberIdentity, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var entries []models.WorkLogEntry
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "2024-03-15", entries[0].WorkDate)
		assert.Equal(t, 7.5, entries[0].Hours)
		assert.Nil(t, entries[0].Notes)
	})

	t.Run("Invalid filters", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodGet, "/api/work-logs?from=15-03-2024&userId=123", &memberIdentity, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "invalid query parameters", body.Message)
		require.NotNil(t, body.Issues)
		assert.Contains(t, body.Issues.FieldErrors, "from")
		assert.Contains(t, body.Issues.FieldErrors, "userId")
	})
}

func TestCreateWorkLog(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()
	body := func(userID uuid.UUID, h float64) map[string]any {
		return map[string]any{
			"userId": userID.String(), "projectId": projectID.String(),
			"workDate": "2024-03-15", "hours": h, "notes": "pairing",
		}
	}

	t.Run("Created", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		id := uuid.New()
		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		d.mock.ExpectBegin()
		d.mock.ExpectQuery(q("INSERT INTO work_logs")).
			WithArgs(memberIdentity.ID, projectID, "0.25", "2024-03-15", "pairing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), time.Now(), time.Now()))
		d.mock.ExpectExec(q("UPDATE projects SET total_hours = total_hours + $1 WHERE id = $2")).
			WithArgs("0.25", projectID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		d.mock.ExpectCommit()

		rec := d.do(t, http.MethodPost, "/api/work-logs", &memberIdentity, body(memberIdentity.ID, 0.25))

		require.Equal(t, http.StatusCreated, rec.Code)
		var wl models.WorkLog
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&wl))
		assert.Equal(t, id, wl.ID)
		assert.Equal(t, projectID, wl.ProjectID)
		assert.Equal(t, 0.25, wl.Hours)
	})

	t.Run("Hours out of range", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodPost, "/api/work-logs", &memberIdentity, body(memberIdentity.ID, 24.01))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errBody := decodeError(t, rec)
		require.NotNil(t, errBody.Issues)
		assert.Equal(t, []string{"must be at most 24"}, errBody.Issues.FieldErrors["hours"])
	})

	t.Run("Hours as string", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodPost, "/api/work-logs", &memberIdentity,
			`{"userId":"`+memberIdentity.ID.String()+`","projectId":"`+projectID.String()+`","workDate":"2024-03-15","hours":"8"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errBody := decodeError(t, rec)
		require.NotNil(t, errBody.Issues)
		assert.Contains(t, errBody.Issues.FieldErrors, "hours")
	})

	t.Run("Member logging for someone else", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodPost, "/api/work-logs", &memberIdentity, body(uuid.New(), 8))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Unknown user", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		d.mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		rec := d.do(t, http.MethodPost, "/api/work-logs", &adminIdentity, body(uuid.New(), 8))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid user or project", decodeError(t, rec).Message)
	})
}

func TestDeleteWorkLog(t *testing.T) {
	t.Parallel()

	t.Run("Invalid id", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		rec := d.do(t, http.MethodDelete, "/api/work-logs/not-a-uuid", &adminIdentity, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid id format", decodeError(t, rec).Message)
	})

	t.Run("Not found", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		d.mock.ExpectBegin()
		d.mock.ExpectQuery(q("DELETE FROM work_logs")).WillReturnRows(sqlmock.NewRows([]string{"project_id", "hours"}))
		d.mock.ExpectRollback()

		rec := d.do(t, http.MethodDelete, "/api/work-logs/"+uuid.NewString(), &adminIdentity, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "work log not found", decodeError(t, rec).Message)
	})

	t.Run("Deleted", func(t *testing.T) {
		t.Parallel()
		d := setupHandlerTest(t)

		id, projectID := uuid.New(), uuid.New()
		d.mock.ExpectBegin()
		d.mock.ExpectQuery(q("DELETE FROM work_logs WHERE id = $1 RETURNING project_id, hours")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"project_id", "hours"}).AddRow(projectID.String(), "3.00"))
		d.mock.ExpectExec(q("UPDATE projects SET total_hours = GREATEST(total_hours - $1, 0) WHERE id = $2")).
			WithArgs("3.00", projectID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		d.mock.ExpectCommit()

		rec := d.do(t, http.MethodDelete, "/api/work-logs/"+id.String(), &adminIdentity, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.DeletedRef
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, id, got.ID)
	})
}

func TestExportWorkLogs(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	d.mock.ExpectQuery(q("FROM work_logs w")).
		WillReturnRows(sqlmock.NewRows(workLogColumns).
			AddRow(uuid.NewString(), memberIdentity.ID.String(), "jane", uuid.NewString(), "Acme", "7.50",
				time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "pairing"))

	rec := d.do(t, http.MethodGet, "/api/work-logs/export", &memberIdentity, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(rec.Body.Bytes()))
	user := doc.FindElement("/timesheet/user")
	require.NotNil(t, user)
	assert.Equal(t, "jane", user.SelectAttrValue("username", ""))
	assert.Equal(t, "7.50", user.SelectAttrValue("totalHours", ""))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	d.mock.ExpectPing()
	rec := d.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	d.mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	rec = d.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()
	d := setupHandlerTest(t)

	rec := d.do(t, http.MethodPut, "/health", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", decodeError(t, rec).Message)

	rec = d.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = d.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
