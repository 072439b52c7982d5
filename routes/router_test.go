package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opunath26/idea-arena-server/controllers"
	"github.com/opunath26/idea-arena-server/database"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/payments"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	t        *testing.T
	db       *gorm.DB
	stub     *payments.Stub
	verifier *utils.TokenVerifier
	router   *gin.Engine
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.MigrateTables(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stub := payments.NewStub("https://arena.example.com")
	tracking := services.NewTrackingService(db)
	stats := services.NewStatsService(db)
	users := services.NewUserService(db).WithStats(stats)
	h := &controllers.Handler{
		Contests:   services.NewContestService(db, tracking).WithStats(stats),
		Candidates: services.NewCandidateService(db),
		Users:      users,
		Payments: services.NewPaymentService(db, stub, tracking, services.NewLocalLocker(), services.PaymentOptions{
			SiteDomain: "https://arena.example.com",
		}).WithStats(stats),
		Tracking: tracking,
		Stats:    stats,
	}
	verifier := utils.NewTokenVerifier("router-test-secret", "idea-arena")
	return &testApp{
		t:        t,
		db:       db,
		stub:     stub,
		verifier: verifier,
		router:   SetupRouter(h, verifier, users),
	}
}

func (a *testApp) token(email string) string {
	a.t.Helper()
	tok, err := a.verifier.GenerateToken(email, "", time.Hour)
	if err != nil {
		a.t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func (a *testApp) user(email string, role models.UserRole) {
	a.t.Helper()
	if err := a.db.Create(&models.User{Email: email, Name: email, Role: role}).Error; err != nil {
		a.t.Fatalf("seed user: %v", err)
	}
}

// do 发送请求；as 为空表示匿名
func (a *testApp) do(method, path, as string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(as))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

func TestPaidContestScenario(t *testing.T) {
	app := newTestApp(t)
	app.user("creator@example.com", models.RoleUser)

	code, env := app.do(http.MethodPost, "/contests", "creator@example.com", map[string]interface{}{
		"contestTitle":       "Logo Design",
		"contestType":        "design",
		"contestCreationFee": 20,
	})
	if code != http.StatusOK {
		t.Fatalf("create contest: %d %s", code, env.Message)
	}
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, env.Data, &created)

	code, env = app.do(http.MethodPost, "/payment-checkout-session", "creator@example.com", map[string]string{"contestId": created.InsertedID})
	if code != http.StatusOK {
		t.Fatalf("checkout: %d %s", code, env.Message)
	}
	var checkout services.CheckoutResult
	decode(t, env.Data, &checkout)
	if err := app.stub.MarkPaid(checkout.SessionID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	code, env = app.do(http.MethodPatch, "/payment-success?session_id="+checkout.SessionID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("confirm: %d %s", code, env.Message)
	}
	var confirm services.ConfirmResult
	decode(t, env.Data, &confirm)
	if !confirm.Success || confirm.PaymentInfo == nil || confirm.PaymentInfo.Amount != 20 {
		t.Fatalf("confirm result = %+v", confirm)
	}

	_, env = app.do(http.MethodGet, "/contests/"+created.InsertedID, "", nil)
	var contest models.Contest
	decode(t, env.Data, &contest)
	if contest.PaymentStatus != models.PaymentPaid || contest.SubmitStatus != models.SubmitDone || contest.ParticipantsCount != 1 {
		t.Errorf("contest = %+v", contest)
	}

	_, env = app.do(http.MethodGet, "/trackings/"+confirm.TrackingID+"/logs", "", nil)
	var logs []models.TrackingLog
	decode(t, env.Data, &logs)
	if len(logs) != 1 || logs[0].Status != "submit-done" {
		t.Errorf("logs = %+v", logs)
	}

	// 重复确认不重复入账
	_, env = app.do(http.MethodPatch, "/payment-success?session_id="+checkout.SessionID, "", nil)
	var again services.ConfirmResult
	decode(t, env.Data, &again)
	if !again.AlreadyProcessed || again.TrackingID != confirm.TrackingID {
		t.Errorf("second confirm = %+v", again)
	}

	_, env = app.do(http.MethodGet, "/payments", "creator@example.com", nil)
	var list []models.Payment
	decode(t, env.Data, &list)
	if len(list) != 1 {
		t.Errorf("payments = %d, want 1", len(list))
	}
}

func TestPaymentSuccessEdgeCases(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(http.MethodPatch, "/payment-success", "", nil)
	if code != http.StatusBadRequest {
		t.Errorf("missing session_id: %d %s", code, env.Message)
	}

	app.stub.Put(payments.Session{ID: "cs_open", PaymentStatus: "unpaid", Metadata: map[string]string{"contestId": "x"}})
	code, env = app.do(http.MethodPatch, "/payment-success?session_id=cs_open", "", nil)
	var res map[string]interface{}
	decode(t, env.Data, &res)
	if code != http.StatusOK || res["success"] != false {
		t.Errorf("unpaid session: %d %v", code, res)
	}

	code, _ = app.do(http.MethodPatch, "/payment-success?session_id=cs_unknown", "", nil)
	if code != http.StatusBadGateway {
		t.Errorf("unknown session: %d, want 502", code)
	}

	var n int64
	app.db.Model(&models.Payment{}).Count(&n)
	if n != 0 {
		t.Errorf("payments written: %d", n)
	}
}

func TestCandidateLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.user("admin@example.com", models.RoleAdmin)
	app.user("creator@example.com", models.RoleUser)
	app.user("cand@example.com", models.RoleUser)

	code, env := app.do(http.MethodPost, "/candidates", "cand@example.com", map[string]string{"name": "Cand", "contestType": "design"})
	if code != http.StatusOK {
		t.Fatalf("apply: %d %s", code, env.Message)
	}
	var applied struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, env.Data, &applied)

	if code, _ := app.do(http.MethodPatch, "/candidates/"+applied.InsertedID, "cand@example.com", map[string]string{"status": "approved"}); code != http.StatusForbidden {
		t.Errorf("self approval: %d, want 403", code)
	}
	if code, env := app.do(http.MethodPatch, "/candidates/"+applied.InsertedID, "admin@example.com", map[string]string{"status": "approved"}); code != http.StatusOK {
		t.Fatalf("approve: %d %s", code, env.Message)
	}
	_, env = app.do(http.MethodGet, "/users/cand@example.com/role", "", nil)
	var role struct {
		Role string `json:"role"`
	}
	decode(t, env.Data, &role)
	if role.Role != "candidate" {
		t.Errorf("role = %q, want candidate", role.Role)
	}

	_, env = app.do(http.MethodPost, "/contests", "creator@example.com", map[string]interface{}{"contestTitle": "Logo", "contestCreationFee": 5})
	var contest struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, env.Data, &contest)

	if code, env := app.do(http.MethodPatch, "/contests/"+contest.InsertedID+"/assign", "admin@example.com", map[string]string{"candidateId": applied.InsertedID}); code != http.StatusOK {
		t.Fatalf("assign: %d %s", code, env.Message)
	}
	_, env = app.do(http.MethodGet, "/candidates?workStatus=assigned", "", nil)
	var busy []models.Candidate
	decode(t, env.Data, &busy)
	if len(busy) != 1 {
		t.Errorf("assigned candidates = %d, want 1", len(busy))
	}

	if code, _ := app.do(http.MethodPatch, "/contests/"+contest.InsertedID+"/status", "stranger@example.com", map[string]string{"submitStatus": "submission-approved"}); code != http.StatusForbidden {
		t.Errorf("stranger status update: %d, want 403", code)
	}
	if code, env := app.do(http.MethodPatch, "/contests/"+contest.InsertedID+"/status", "cand@example.com", map[string]string{"submitStatus": "submission-approved"}); code != http.StatusOK {
		t.Fatalf("candidate status update: %d %s", code, env.Message)
	}
	if code, env := app.do(http.MethodPatch, "/contests/"+contest.InsertedID+"/status", "creator@example.com", map[string]string{"submitStatus": "prize-delivered"}); code != http.StatusOK {
		t.Fatalf("deliver: %d %s", code, env.Message)
	}
	if code, _ := app.do(http.MethodPatch, "/contests/"+contest.InsertedID+"/status", "admin@example.com", map[string]string{"submitStatus": "submit-done"}); code != http.StatusConflict {
		t.Errorf("transition out of terminal: %d, want 409", code)
	}

	_, env = app.do(http.MethodGet, "/candidates?workStatus=available", "", nil)
	var free []models.Candidate
	decode(t, env.Data, &free)
	if len(free) != 1 {
		t.Errorf("available candidates = %d, want 1", len(free))
	}
}

func TestGatesAndAdminStats(t *testing.T) {
	app := newTestApp(t)
	app.user("admin@example.com", models.RoleAdmin)
	app.user("user@example.com", models.RoleUser)

	if code, _ := app.do(http.MethodGet, "/admin-stats", "", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous stats: %d, want 401", code)
	}
	if code, _ := app.do(http.MethodGet, "/admin-stats", "user@example.com", nil); code != http.StatusForbidden {
		t.Errorf("user stats: %d, want 403", code)
	}
	code, env := app.do(http.MethodGet, "/admin-stats", "admin@example.com", nil)
	if code != http.StatusOK {
		t.Fatalf("admin stats: %d %s", code, env.Message)
	}
	var stats services.AdminStats
	decode(t, env.Data, &stats)
	if stats.TotalUsers != 2 {
		t.Errorf("totalUsers = %d", stats.TotalUsers)
	}

	if code, _ := app.do(http.MethodGet, "/payments?email=admin@example.com", "user@example.com", nil); code != http.StatusForbidden {
		t.Errorf("foreign payments: %d, want 403", code)
	}
	if code, _ := app.do(http.MethodGet, "/users", "", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous user list: %d, want 401", code)
	}
	if code, _ := app.do(http.MethodDelete, "/contests/any", "user@example.com", nil); code != http.StatusForbidden {
		t.Errorf("user delete: %d, want 403", code)
	}

	code, env = app.do(http.MethodDelete, "/contests/missing", "admin@example.com", nil)
	var res services.WriteResult
	decode(t, env.Data, &res)
	if code != http.StatusOK || res.DeletedCount != 0 {
		t.Errorf("delete missing: %d %+v", code, res)
	}
}

func TestUserRegistration(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(http.MethodPost, "/users", "", map[string]string{"email": "new@example.com", "name": "New"})
	if code != http.StatusOK || env.Message != "user created" {
		t.Fatalf("create: %d %s", code, env.Message)
	}
	code, env = app.do(http.MethodPost, "/users", "", map[string]string{"email": "new@example.com"})
	if code != http.StatusOK || env.Message != "user already exists" {
		t.Errorf("duplicate: %d %s", code, env.Message)
	}
	if code, _ := app.do(http.MethodPost, "/users", "", map[string]string{"name": "no email"}); code != http.StatusBadRequest {
		t.Errorf("missing email: %d, want 400", code)
	}
	if code, _ := app.do(http.MethodGet, "/contests?submitStatus=bogus", "", nil); code != http.StatusBadRequest {
		t.Errorf("bogus status filter: %d, want 400", code)
	}
}

func TestCandidateWithdrawal(t *testing.T) {
	app := newTestApp(t)
	app.user("cand@example.com", models.RoleUser)
	app.user("other@example.com", models.RoleUser)

	_, env := app.do(http.MethodPost, "/candidates", "cand@example.com", map[string]string{"contestType": "design"})
	var applied struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, env.Data, &applied)

	if code, _ := app.do(http.MethodDelete, "/candidates/"+applied.InsertedID, "other@example.com", nil); code != http.StatusForbidden {
		t.Errorf("foreign withdrawal: %d, want 403", code)
	}
	code, env := app.do(http.MethodDelete, "/candidates/"+applied.InsertedID, "cand@example.com", nil)
	var res services.WriteResult
	decode(t, env.Data, &res)
	if code != http.StatusOK || res.DeletedCount != 1 {
		t.Errorf("own withdrawal: %d %+v", code, res)
	}
}
