package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/rekodi/apps/api/echo"
	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/appdata"
	"github.com/trezcool/rekodi/core/school"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
	testutil "github.com/trezcool/rekodi/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server     Server
	conf       *core.Config
	schoolSvc  *school.Service
	appDataSvc *appdata.Service
	schoolRepo *dummydb.SchoolRepository
}

func setup(t *testing.T) testApp {
	conf := testutil.NewConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	schoolRepo := dummydb.NewSchoolRepository(db)
	schoolSvc := school.NewService(nil, schoolRepo, conf)
	appDataSvc := appdata.NewService(nil, dummydb.NewAppDataRepository(db))

	validate, translator := newValidators(t)

	server, err := NewServer(
		ServerDeps{
			Conf:       conf,
			Logger:     nopLogger{},
			SchoolSvc:  schoolSvc,
			AppDataSvc: appDataSvc,
			Validate:   validate,
			Translator: translator,
		},
	)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	return testApp{
		server:     server,
		conf:       conf,
		schoolSvc:  schoolSvc,
		appDataSvc: appDataSvc,
		schoolRepo: schoolRepo,
	}
}

func newValidators(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, found := uni.GetTranslator("en")
	if !found {
		t.Fatal("newValidators() failed: en translator not found")
	}
	core.InitValidators(validate, translator)
	return validate, translator
}

type nopLogger struct{}

func (nopLogger) Enable(bool) {}

func (nopLogger) Debug(string, ...interface{}) {}

func (nopLogger) Info(string, ...interface{}) {}

func (nopLogger) Warn(string, ...interface{}) {}

func (nopLogger) Error(string, ...interface{}) {}

func (nopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, stu school.Student, conf *core.Config) string {
	return signToken(t, GetStudentClaims(stu, conf), conf)
}

func signToken(t *testing.T, claims *Claims, conf *core.Config) string {
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("signToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
