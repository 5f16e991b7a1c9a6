package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/trezcool/ecole/apps/api/echo"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/session"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	appfs "github.com/trezcool/ecole/fs"
	"github.com/trezcool/ecole/services/email"
	"github.com/trezcool/ecole/services/filestore"
	"github.com/trezcool/ecole/services/logger"
	"github.com/trezcool/ecole/storage"
	"github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/storage/sessions"
	"github.com/trezcool/ecole/tests"
)

var (
	errAuthRequired       = httpErr{Error: "authentication required"}
	errInvalidCredentials = httpErr{Error: "invalid credentials"}
	errPermissionDenied   = httpErr{Error: "permission denied"}
)

type testApp struct {
	conf     *core.Config
	server   *echoapi.Server
	store    *storage.Store
	sessions *session.Manager
	mailSvc  *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) *testApp {
	t.Helper()
	user.PasswordHashCost = bcrypt.MinCost

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	lgr := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	lgr.Enable(false)

	store := inmemdb.NewStore()
	mgr := session.NewManager(sessions.NewMemoryStore(), conf)
	conf.Storage.Backend = filestore.BackendLocal
	conf.Storage.LocalDir = t.TempDir()
	files, err := filestore.NewLocalStorage(conf.Storage.LocalDir, filestore.LocalURLPrefix)
	require.NoError(t, err)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, lgr)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	material.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         lgr,
		DisableReqLogs: true,
		Sessions:       mgr,
		UserSvc:        user.NewService(store.Users, store.Tx, store.Activities, mailSvc),
		GroupSvc:       group.NewService(store.Groups, store.Tx, store.Activities),
		SubjectSvc:     subject.NewService(store.Subjects, store.Tx, store.Activities),
		MaterialSvc: material.NewService(
			store.Materials, store.Groups, store.Subjects, files, store.Tx, store.Activities, lgr,
		),
		GradeSvc: grade.NewService(
			store.Grades, store.Users, store.Groups, store.Subjects, store.Notifications, store.Tx, store.Activities,
		),
		ScheduleSvc: schedule.NewService(
			store.Schedules, store.Users, store.Groups, store.Subjects, store.Tx, store.Activities,
		),
		ActivitySvc:     activity.NewService(store.Activities),
		NotificationSvc: notification.NewService(store.Notifications, store.Tx, store.Activities),
		MessageSvc:      message.NewService(store.Messages, store.Groups, store.Tx, store.Activities),
		Validate:        validate,
		Translator:      translator,
	})
	t.Cleanup(func() { _ = server.Close() })

	return &testApp{
		conf:     conf,
		server:   server,
		store:    store,
		sessions: mgr,
		mailSvc:  mailSvc,
	}
}

// createUser creates an active user with password "secret-pwd-42".
func (app *testApp) createUser(t *testing.T, firstName, email, role string) user.User {
	return testutil.CreateUser(t, app.store.Users, firstName, "Test", email, "secret-pwd-42", role, true)
}

// login opens a session for usr without going through the login route.
func (app *testApp) login(t *testing.T, usr user.User) *http.Cookie {
	t.Helper()
	token, _, err := app.sessions.Create(context.Background(), usr.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: app.conf.Session.CookieName, Value: token}
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	rec := app.do(newRequest(method, tt.path, tt.cookie, tt.body))
	checkCodeAndData(t, tt, rec)
	return rec
}

// logs returns the activity logs matching filter.
func (app *testApp) logs(t *testing.T, filter activity.QueryFilter) []activity.Log {
	t.Helper()
	logs, err := app.store.Activities.QueryLogs(context.Background(), &filter)
	require.NoError(t, err)
	return logs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookie   *http.Cookie
	wantCode int
	wantData []byte
}

func newRequest(method, path string, cookie *http.Cookie, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// newMultipartRequest builds a multipart/form-data POST carrying fields and, unless fileName is empty, a file part.
func newMultipartRequest(
	t *testing.T,
	path string,
	cookie *http.Cookie,
	fields map[string]string,
	fileName, contentType string,
	content []byte,
) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData checks the status code, and the body when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
