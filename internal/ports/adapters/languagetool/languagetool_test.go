package languagetool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newServer(t *testing.T, check func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/languages", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Language{
			{Name: "English (US)", Code: "en", LongCode: "en-US"},
			{Name: "Italian", Code: "it", LongCode: "it"},
		})
	})
	if check != nil {
		mux.HandleFunc("/v2/check", check)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConnect_LocaleSupport(t *testing.T) {
	srv := newServer(t, nil)

	if _, err := Connect(context.Background(), Options{BaseURL: srv.URL}, "en-US"); err != nil {
		t.Fatalf("connect en-US: %v", err)
	}
	if _, err := Connect(context.Background(), Options{BaseURL: srv.URL + "/"}, "it"); err != nil {
		t.Fatalf("connect it: %v", err)
	}
	if _, err := Connect(context.Background(), Options{BaseURL: srv.URL}, "pl-PL"); err == nil {
		t.Fatalf("expected unsupported locale error")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := newServer(t, nil)
	url := srv.URL
	srv.Close()

	if _, err := Connect(context.Background(), Options{BaseURL: url}, "en-US"); err == nil {
		t.Fatalf("expected error for closed server")
	}
}

func TestCorrect(t *testing.T) {
	var gotLang, gotText string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotLang = r.PostForm.Get("language")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"matches":[
			{"offset":0,"length":2,"replacements":[{"value":"He"},{"value":"She"}]},
			{"offset":3,"length":2,"replacements":[{"value":"goes"}]},
			{"offset":10,"length":0,"replacements":[{"value":"."}]}
		]}`))
	})

	a, err := Connect(context.Background(), Options{BaseURL: srv.URL}, "en-US")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer a.Close()

	got, err := a.Correct(context.Background(), "he go home")
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if got != "He goes home." {
		t.Fatalf("unexpected correction %q", got)
	}
	if gotLang != "en-US" || gotText != "he go home" {
		t.Fatalf("unexpected request language=%q text=%q", gotLang, gotText)
	}
}

func TestCorrect_EmptyTextSkipsRequest(t *testing.T) {
	called := false
	srv := newServer(t, func(http.ResponseWriter, *http.Request) { called = true })
	a, err := Connect(context.Background(), Options{BaseURL: srv.URL}, "en-US")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	got, err := a.Correct(context.Background(), "")
	if err != nil || got != "" || called {
		t.Fatalf("got=%q err=%v called=%v", got, err, called)
	}
}

func TestCorrect_ServerErrorIsRedacted(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid apiKey=" + r.PostForm.Get("apiKey")))
	})
	a, err := Connect(context.Background(), Options{BaseURL: srv.URL, Username: "me@example.com", APIKey: "secret-key-123"}, "en-US")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_, err = a.Correct(context.Background(), "text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "secret-key-123") {
		t.Fatalf("api key leaked: %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error: %v", err)
	}
}

func TestApplyMatches(t *testing.T) {
	type repl = struct {
		Value string `json:"value"`
	}
	tests := []struct {
		name    string
		text    string
		matches []match
		want    string
	}{
		{
			name: "no matches",
			text: "fine",
			want: "fine",
		},
		{
			name: "match without replacement ignored",
			text: "fine",
			matches: []match{
				{Offset: 0, Length: 4},
			},
			want: "fine",
		},
		{
			name: "overlap keeps first",
			text: "abcdef",
			matches: []match{
				{Offset: 2, Length: 3, Replacements: []repl{{Value: "X"}}},
				{Offset: 0, Length: 3, Replacements: []repl{{Value: "Y"}}},
			},
			want: "Ydef",
		},
		{
			name: "utf16 offsets past astral rune",
			text: "😀 teh end",
			matches: []match{
				{Offset: 3, Length: 3, Replacements: []repl{{Value: "the"}}},
			},
			want: "😀 the end",
		},
		{
			name: "out of range ignored",
			text: "abc",
			matches: []match{
				{Offset: 2, Length: 5, Replacements: []repl{{Value: "X"}}},
			},
			want: "abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyMatches(tt.text, tt.matches); got != tt.want {
				t.Fatalf("applyMatches = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactSecrets(t *testing.T) {
	got := redactSecrets("status 401; apiKey=abc123&username=x", "abc123")
	if strings.Contains(got, "abc123") {
		t.Fatalf("expected key to be redacted, got %q", got)
	}
	got = redactSecrets("api_key: other", "")
	if got != "api_key: [REDACTED]" {
		t.Fatalf("unexpected redaction %q", got)
	}
}

func TestProbe(t *testing.T) {
	srv := newServer(t, nil)
	if err := Probe(context.Background(), Options{BaseURL: srv.URL}); err != nil {
		t.Fatalf("probe: %v", err)
	}
	srv.Close()
	if err := Probe(context.Background(), Options{BaseURL: srv.URL}); err == nil {
		t.Fatalf("expected probe error for closed server")
	}
}
