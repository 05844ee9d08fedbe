package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zapleads/zapleads/internal/dispatch"
)

type stubEngine struct {
	summary  *dispatch.Summary
	runErr   error
	lastRun  dispatch.RunRequest
	lastTest dispatch.TestSendRequest
	testErr  error
}

func (s *stubEngine) Run(_ context.Context, req dispatch.RunRequest) (*dispatch.Summary, error) {
	s.lastRun = req
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.summary, nil
}

func (s *stubEngine) TestSend(_ context.Context, req dispatch.TestSendRequest) (string, error) {
	s.lastTest = req
	if s.testErr != nil {
		return "", s.testErr
	}
	return "Olá Empresa Exemplo", nil
}

func TestHandleRun(t *testing.T) {
	engine := &stubEngine{summary: &dispatch.Summary{Total: 2, Sent: 1, Skipped: 1}}
	handler := NewDispatchHandler(DispatchConfig{Engine: engine, DefaultOrgID: "org-1"})

	body := `{"lead_ids": ["l1", "l2"], "template_id": "tpl-1", "force": false}`
	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleRun(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if engine.lastRun.OrgID != "org-1" || len(engine.lastRun.LeadIDs) != 2 || engine.lastRun.TemplateID != "tpl-1" {
		t.Errorf("run request = %+v", engine.lastRun)
	}
	var summary dispatch.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Sent != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestHandleRunRequiresLeadIDs(t *testing.T) {
	handler := NewDispatchHandler(DispatchConfig{Engine: &stubEngine{}})

	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(`{"lead_ids": []}`))
	rec := httptest.NewRecorder()
	handler.HandleRun(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleRunNoLeads(t *testing.T) {
	handler := NewDispatchHandler(DispatchConfig{Engine: &stubEngine{runErr: dispatch.ErrNoLeads}})

	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(`{"lead_ids": ["ghost"]}`))
	rec := httptest.NewRecorder()
	handler.HandleRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleRunAmbiguousEdit(t *testing.T) {
	handler := NewDispatchHandler(DispatchConfig{Engine: &stubEngine{runErr: dispatch.ErrEditedMessageAmbiguous}})

	body := `{"lead_ids": ["l1", "l2"], "edited_message": "x"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleRun(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleRunOrgHeaderOverride(t *testing.T) {
	engine := &stubEngine{summary: &dispatch.Summary{}}
	handler := NewDispatchHandler(DispatchConfig{Engine: engine, DefaultOrgID: "org-1"})

	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch", strings.NewReader(`{"lead_ids": ["l1"]}`))
	req.Header.Set("X-Org-Id", "org-2")
	rec := httptest.NewRecorder()
	handler.HandleRun(rec, req)

	if engine.lastRun.OrgID != "org-2" {
		t.Errorf("org = %q", engine.lastRun.OrgID)
	}
}

func TestHandleTestSend(t *testing.T) {
	engine := &stubEngine{}
	handler := NewDispatchHandler(DispatchConfig{Engine: engine, DefaultOrgID: "org-1"})

	body := `{"number": "5511777777777", "template_id": "tpl-1"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch/test", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleTestSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if engine.lastTest.Number != "5511777777777" || engine.lastTest.TemplateID != "tpl-1" {
		t.Errorf("test request = %+v", engine.lastTest)
	}
	if !strings.Contains(rec.Body.String(), "Olá Empresa Exemplo") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleTestSendRequiresNumber(t *testing.T) {
	handler := NewDispatchHandler(DispatchConfig{Engine: &stubEngine{}})

	req := httptest.NewRequest(http.MethodPost, "/admin/dispatch/test", strings.NewReader(`{"message": "oi"}`))
	rec := httptest.NewRecorder()
	handler.HandleTestSend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
