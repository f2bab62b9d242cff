package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"buildtrack/config"
	"buildtrack/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	app    *app
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := config.Parse([]byte("jwt:\n  secret: e2e-secret\nlogin:\n  rate: 100\n  burst: 100\nupload_dir: " + t.TempDir() + "\n"))
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.AutoMigrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)
	a := newApp(cfg, log, db)
	return &testServer{t: t, app: a, router: newRouter(a)}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(s.t, out.Success)
	return out.Token
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	_, err := s.app.users.CreateAdmin(context.Background(), "Site Admin", "admin@example.com", "admin123")
	require.NoError(s.t, err)
	return s.login("admin@example.com", "admin123")
}

func (s *testServer) createProject(token string, budget float64) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/projects", token, gin.H{
		"name":        "Gulshan Residence",
		"location":    gin.H{"address": "Plot 14, Block 7", "city": "Karachi"},
		"totalBudget": budget,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(s.t, out.Project.ID)
	return out.Project.ID
}

// registerAs creates a user through the admin API and returns their token.
func (s *testServer) registerAs(admin, email, role string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", admin, gin.H{
		"name":     "Site User",
		"email":    email,
		"password": "site123",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(email, "site123")
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.adminToken()

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please authenticate."}`, w.Body.String())
}

func TestMe_ReturnsCaller(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	w := s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, w, &me)
	assert.Equal(t, "admin@example.com", me.Email)
	assert.Equal(t, "admin", me.Role)
}

func TestCreateProject_SeedsFoundationPhases(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()
	id := s.createProject(token, 1000000)

	w := s.do(http.MethodGet, "/api/phases/project/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var phases []struct {
		Phase  string `json:"phase"`
		Status string `json:"status"`
	}
	decode(t, w, &phases)
	require.Len(t, phases, 3)
	for _, p := range phases {
		assert.Equal(t, "pending", p.Status)
	}
}

func TestCreateProject_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	w := s.do(http.MethodPost, "/api/projects", token, gin.H{"totalBudget": 10})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var out struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decode(t, w, &out)
	var fields []string
	for _, e := range out.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "location.address"}, fields)
}

func TestReports_BudgetFromPaidPayments(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()
	id := s.createProject(token, 1000000)

	w := s.do(http.MethodPost, "/api/payments", token, gin.H{
		"projectId":   id,
		"type":        "contractor",
		"paymentTo":   "Al-Noor Builders",
		"amount":      200000,
		"paymentDate": "2024-03-10T00:00:00Z",
		"status":      "paid",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/payments", token, gin.H{
		"projectId":   id,
		"type":        "material",
		"paymentTo":   "Lucky Cement",
		"amount":      50000,
		"paymentDate": "2024-03-12T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/reports/project/"+id+"/overview", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		FinancialSummary struct {
			TotalBudget       float64 `json:"totalBudget"`
			TotalSpent        float64 `json:"totalSpent"`
			RemainingBudget   float64 `json:"remainingBudget"`
			BudgetUtilization string  `json:"budgetUtilization"`
		} `json:"financialSummary"`
	}
	decode(t, w, &report)
	assert.Equal(t, 1000000.0, report.FinancialSummary.TotalBudget)
	assert.Equal(t, 200000.0, report.FinancialSummary.TotalSpent)
	assert.Equal(t, 800000.0, report.FinancialSummary.RemainingBudget)
	assert.Equal(t, "20.00", report.FinancialSummary.BudgetUtilization)

	w = s.do(http.MethodGet, "/api/reports/project/"+id+"/financial", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var financial struct {
		ProjectBudget     float64 `json:"projectBudget"`
		TotalSpent        float64 `json:"totalSpent"`
		RemainingBudget   float64 `json:"remainingBudget"`
		BudgetUtilization string  `json:"budgetUtilization"`
		PendingPayments   int     `json:"pendingPayments"`
	}
	decode(t, w, &financial)
	assert.Equal(t, 1000000.0, financial.ProjectBudget)
	assert.Equal(t, 200000.0, financial.TotalSpent)
	assert.Equal(t, 800000.0, financial.RemainingBudget)
	assert.Equal(t, "20.00", financial.BudgetUtilization)
	assert.Equal(t, 1, financial.PendingPayments)
}

func TestBOQSummary_FlagsCriticalItem(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()
	id := s.createProject(token, 500000)

	w := s.do(http.MethodPost, "/api/boq", token, gin.H{
		"projectId":    id,
		"category":     "civil",
		"itemName":     "Cement bags",
		"unit":         "bag",
		"quantity":     100,
		"ratePerUnit":  1450,
		"usedQuantity": 85,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Item struct {
			TotalAmount float64 `json:"totalAmount"`
			Status      string  `json:"status"`
		} `json:"item"`
	}
	decode(t, w, &created)
	assert.Equal(t, 145000.0, created.Item.TotalAmount)
	assert.Equal(t, "in-use", created.Item.Status)

	w = s.do(http.MethodGet, "/api/boq/project/"+id+"/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary struct {
		TotalItems    int `json:"totalItems"`
		CriticalItems []struct {
			ItemName            string  `json:"itemName"`
			RemainingQuantity   float64 `json:"remainingQuantity"`
			RemainingPercentage string  `json:"remainingPercentage"`
		} `json:"criticalItems"`
	}
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.TotalItems)
	require.Len(t, summary.CriticalItems, 1)
	assert.Equal(t, "Cement bags", summary.CriticalItems[0].ItemName)
	assert.Equal(t, 15.0, summary.CriticalItems[0].RemainingQuantity)
	assert.Equal(t, "15.00", summary.CriticalItems[0].RemainingPercentage)
}

func TestSupervisor_ProjectAssignmentGate(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	id := s.createProject(admin, 1000)

	w := s.do(http.MethodPost, "/api/auth/register", admin, gin.H{
		"name":     "Bilal Site",
		"email":    "bilal@example.com",
		"password": "site123",
		"role":     "supervisor",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, w, &reg)
	supervisor := s.login("bilal@example.com", "site123")

	w = s.do(http.MethodGet, "/api/projects/"+id, supervisor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied. Not assigned to this project."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/projects", supervisor, gin.H{
		"name":     "Side Project",
		"location": gin.H{"address": "Plot 1"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied. Insufficient permissions."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/users/"+reg.User.ID+"/assign-projects", admin, gin.H{"projectIds": []string{id}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/projects/"+id, supervisor, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUnassignedCaller_ForbiddenWhateverTheBody(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	id := s.createProject(admin, 1000)
	supervisor := s.registerAs(admin, "bilal@example.com", "supervisor")
	manager := s.registerAs(admin, "sana@example.com", "manager")

	w := s.do(http.MethodGet, "/api/phases/project/"+id, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var phases []struct {
		ID string `json:"id"`
	}
	decode(t, w, &phases)
	require.NotEmpty(t, phases)
	phaseID := phases[0].ID

	cases := []struct {
		name   string
		token  string
		method string
		path   string
		body   interface{}
	}{
		{"phase progress out of range", supervisor, http.MethodPut, "/api/phases/" + phaseID, gin.H{"progress": 500}},
		{"phase progress in range", supervisor, http.MethodPut, "/api/phases/" + phaseID, gin.H{"progress": 50}},
		{"unknown phase status", supervisor, http.MethodPatch, "/api/phases/" + phaseID + "/status", gin.H{"status": "bogus"}},
		{"issue without title", supervisor, http.MethodPost, "/api/phases/" + phaseID + "/issues", gin.H{}},
		{"payment missing fields", manager, http.MethodPost, "/api/payments", gin.H{"projectId": id}},
		{"negative boq quantity", manager, http.MethodPost, "/api/boq", gin.H{"projectId": id, "quantity": -1}},
		{"phase of unknown type", manager, http.MethodPost, "/api/phases", gin.H{"projectId": id, "phase": "bogus"}},
		{"project status", manager, http.MethodPatch, "/api/projects/" + id + "/status", gin.H{"status": "bogus"}},
		{"non-object payment body", manager, http.MethodPost, "/api/payments", "{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
			assert.JSONEq(t, `{"error":"Access denied. Not assigned to this project."}`, w.Body.String())
		})
	}
}

func TestSwaggerDoc_ListsRoutes(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Swagger string                            `json:"swagger"`
		Paths   map[string]map[string]interface{} `json:"paths"`
	}
	decode(t, w, &doc)
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Contains(t, doc.Paths, "/api/projects/{projectId}")
	assert.Contains(t, doc.Paths["/api/payments/{paymentId}/paid"], "patch")
	assert.NotContains(t, doc.Paths, "/swagger/*any")
}

func TestGinPathToSwaggerPath(t *testing.T) {
	assert.Equal(t, "/api/phases/{phaseId}/issues/{issueId}/resolve", ginPathToSwaggerPath("/api/phases/:phaseId/issues/:issueId/resolve"))
	assert.Equal(t, "/healthz", ginPathToSwaggerPath("/healthz"))
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.Equal(t, 0, execute(cmd))
	assert.True(t, strings.HasPrefix(out.String(), "buildtrack dev"))
}

func TestCronJob_SkipsOverlappingRun(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	calls := 0
	j := &cronJob{name: "test_job", log: log, run: func(context.Context) error {
		calls++
		return nil
	}}

	j.running = 1
	j.tick()
	assert.Equal(t, 0, calls)

	j.running = 0
	j.tick()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int32(0), j.running)
}
