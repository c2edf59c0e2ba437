package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"moodcheck/internal/domain"
)

func TestHTTPClientPredict(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.Classification
	}{
		{"numeric one", `{"depression": 1}`, domain.ClassificationLikelyDepressed},
		{"numeric zero", `{"depression": 0}`, domain.ClassificationNotDepressed},
		{"boolean", `{"depression": true}`, domain.ClassificationLikelyDepressed},
		{"backend label", `{"username":"alice","depression":"Depressed","confidence":0.71}`, domain.ClassificationLikelyDepressed},
		{"backend negative label", `{"depression":"Not Depressed"}`, domain.ClassificationNotDepressed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath, gotUser string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				var req predictRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				gotUser = req.Username
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL+"/", time.Second, zap.NewNop())
			got, err := c.Predict(context.Background(), "alice")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if gotPath != "/predict" || gotUser != "alice" {
				t.Fatalf("unexpected request path=%q user=%q", gotPath, gotUser)
			}
		})
	}
}

func TestHTTPClientPredictFailures(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"Failed to fetch tweets. Try again later."}`)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL, time.Second, nil).Predict(context.Background(), "alice")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("unknown value", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"depression": 7}`)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL, time.Second, nil).Predict(context.Background(), "alice")
		if !errors.Is(err, ErrInvalidClassification) {
			t.Fatalf("expected ErrInvalidClassification, got %v", err)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL, time.Second, nil).Predict(context.Background(), "alice")
		if !errors.Is(err, ErrInvalidClassification) {
			t.Fatalf("expected ErrInvalidClassification, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		if _, err := NewHTTPClient(url, time.Second, nil).Predict(context.Background(), "alice"); err == nil {
			t.Fatalf("expected transport error")
		}
	})
}

func TestHTTPClientStoreDemographics(t *testing.T) {
	var body string
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/store_demographics" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	questions := domain.Questions()
	record := domain.DemographicRecord{
		Username: "alice",
		Answers: []domain.Answer{
			{Question: questions[0], Text: "34"},
			{Question: questions[1], Text: "Female"},
			{Question: questions[2], Text: "Nurse"},
			{Question: questions[3], Text: "Chile"},
		},
	}
	if err := NewHTTPClient(srv.URL, time.Second, nil).StoreDemographics(context.Background(), record); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("payload is not a flat json object: %v (%s)", err, body)
	}
	if decoded["username"] != "alice" || len(decoded) != 5 {
		t.Fatalf("unexpected payload: %v", decoded)
	}
	for _, a := range record.Answers {
		if decoded[a.Question] != a.Text {
			t.Fatalf("expected %q => %q, got %q", a.Question, a.Text, decoded[a.Question])
		}
	}

	last := strings.Index(body, `"username"`)
	for _, q := range questions {
		idx := strings.Index(body, q)
		if idx < last {
			t.Fatalf("expected keys in questionnaire order, got %s", body)
		}
		last = idx
	}
}

func TestHTTPClientStoreDemographicsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, time.Second, nil).StoreDemographics(context.Background(), domain.DemographicRecord{Username: "alice"})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if c, err := New("mock", "", 0, nil); err != nil {
		t.Fatalf("expected mock client, got %v", err)
	} else if _, ok := c.(*MockClient); !ok {
		t.Fatalf("expected *MockClient, got %T", c)
	}
	if c, err := New("", "", 0, nil); err != nil {
		t.Fatalf("expected http client, got %v", err)
	} else if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("expected *HTTPClient, got %T", c)
	}
	if _, err := New("grpc", "", 0, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
