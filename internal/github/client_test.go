package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Token:   "test-token",
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestGetIssue(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widgets/issues/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"number": 42, "title": "Crash", "body": "boom"}`)
	}))

	issue, err := c.GetIssue(context.Background(), "acme", "widgets", 42)
	if err != nil {
		t.Fatalf("GetIssue() error = %v", err)
	}
	if issue.Number != 42 || issue.Title != "Crash" {
		t.Fatalf("issue = %+v", issue)
	}
}

func TestListLabels(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "bug"}, {"name": "p2"}]`)
	}))

	labels, err := c.ListLabels(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("ListLabels() error = %v", err)
	}
	if len(labels) != 2 || labels[0] != "bug" || labels[1] != "p2" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestListTemplates(t *testing.T) {
	doc := "name: Bug Report\nbody:\n  - type: input\n    attributes:\n      label: Steps\n"
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/contents/.github/ISSUE_TEMPLATE":
			fmt.Fprint(w, `[
				{"name": "bug_report.yml", "path": ".github/ISSUE_TEMPLATE/bug_report.yml", "type": "file"},
				{"name": "config.yml", "path": ".github/ISSUE_TEMPLATE/config.yml", "type": "file"},
				{"name": "README.md", "path": ".github/ISSUE_TEMPLATE/README.md", "type": "file"}
			]`)
		case "/repos/acme/widgets/contents/.github/ISSUE_TEMPLATE/bug_report.yml":
			json.NewEncoder(w).Encode(map[string]string{
				"content":  base64.StdEncoding.EncodeToString([]byte(doc)),
				"encoding": "base64",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	templates, err := c.ListTemplates(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("ListTemplates() error = %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1 (config.yml and README.md skipped)", len(templates))
	}
	if string(templates["bug_report"]) != doc {
		t.Fatalf("template content = %q", templates["bug_report"])
	}
}

func TestPublishTriage(t *testing.T) {
	var patched, labeled bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case r.Method == http.MethodPatch && r.URL.Path == "/repos/acme/widgets/issues/42":
			patched = true
			if !strings.Contains(string(body), "rendered body") {
				t.Errorf("patch body = %s", body)
			}
		case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/widgets/issues/42/labels":
			labeled = true
			if !strings.Contains(string(body), `"bug"`) {
				t.Errorf("labels body = %s", body)
			}
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{}`)
	}))

	err := c.PublishTriage(context.Background(), "acme", "widgets", 42, Publication{
		Title:  "Crash on startup",
		Body:   "rendered body",
		Labels: []string{"bug", "p1", "triaged"},
	})
	if err != nil {
		t.Fatalf("PublishTriage() error = %v", err)
	}
	if !patched || !labeled {
		t.Fatalf("patched = %v, labeled = %v", patched, labeled)
	}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	var calls int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"number": 1}`)
	}))

	if _, err := c.GetIssue(context.Background(), "acme", "widgets", 1); err != nil {
		t.Fatalf("GetIssue() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := c.GetIssue(context.Background(), "acme", "widgets", 1); err == nil {
		t.Fatalf("GetIssue() should fail on 404")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (4xx is unrecoverable)", calls)
	}
}
