package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Load(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody loadRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode load request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/models/kosmos2.pt")
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if gotPath != "/load" {
		t.Errorf("expected POST /load, got %s", gotPath)
	}
	if gotBody.ModelPath != "/models/kosmos2.pt" {
		t.Errorf("expected model path in load request, got %q", gotBody.ModelPath)
	}
}

func TestClient_LoadFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "weights not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/models/missing.pt")
	err := c.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for failed load")
	}
	if !strings.Contains(err.Error(), "weights not found") {
		t.Errorf("error should carry the upstream message, got: %v", err)
	}
}

func TestClient_Describe(t *testing.T) {
	t.Parallel()

	image := []byte{0x89, 0x50, 0x4e, 0x47}
	sampling := true
	topP := 0.9

	var gotReq describeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/describe" {
			t.Errorf("expected /describe, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode describe request: %v", err)
		}
		json.NewEncoder(w).Encode(describeResponse{Response: "a red bicycle"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/models/kosmos2.pt")
	got, err := c.Describe(context.Background(), DescribeInput{
		Text:            "describe this",
		DescriptionType: "brief",
		EnableSampling:  &sampling,
		SamplingTopP:    &topP,
		Image:           image,
	})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	if got != "a red bicycle" {
		t.Errorf("response = %q, want %q", got, "a red bicycle")
	}
	if gotReq.Text != "describe this" || gotReq.DescriptionType != "brief" {
		t.Errorf("unexpected request fields: %+v", gotReq)
	}
	if gotReq.EnableSampling == nil || !*gotReq.EnableSampling {
		t.Error("enable_sampling should be forwarded")
	}
	if gotReq.SamplingTopP == nil || *gotReq.SamplingTopP != 0.9 {
		t.Error("sampling_topp should be forwarded")
	}
	if gotReq.SamplingTemperature != nil {
		t.Error("unset sampling_temperature should be omitted")
	}
	if gotReq.Image != base64.StdEncoding.EncodeToString(image) {
		t.Error("image bytes should be base64 encoded")
	}
}

func TestClient_DescribeFailurePassesThroughMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/models/kosmos2.pt")
	_, err := c.Describe(context.Background(), DescribeInput{Text: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("error should carry the upstream message, got: %v", err)
	}
}

func TestClient_DescribeContextCancellation(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "/models/kosmos2.pt")
	if _, err := c.Describe(ctx, DescribeInput{Text: "hi"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
