package serverless

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func TestAdapterRoundTrip(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotRemote, gotHeader string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotMethod, gotPath, gotBody, gotRemote = r.Method, r.URL.Path, string(data), r.RemoteAddr
		gotHeader = r.Header.Get("X-Request-ID")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	ev := events.APIGatewayV2HTTPRequest{
		RawPath: "/chatbot",
		Body:    base64.StdEncoding.EncodeToString([]byte(`{"message":"hi"}`)),
		Headers: map[string]string{"x-request-id": "req-1"},

		IsBase64Encoded: true,
	}
	ev.RequestContext.HTTP.Method = http.MethodPost
	ev.RequestContext.HTTP.SourceIP = "203.0.113.9"

	resp, err := NewAdapter(h).Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/chatbot" || gotBody != `{"message":"hi"}` {
		t.Fatalf("unexpected request %s %s %q", gotMethod, gotPath, gotBody)
	}
	if gotRemote != "203.0.113.9:0" {
		t.Fatalf("unexpected remote addr %q", gotRemote)
	}
	if gotHeader != "req-1" {
		t.Fatalf("header not forwarded: %q", gotHeader)
	}

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Body != `{"ok":true}` || resp.IsBase64Encoded {
		t.Fatalf("unexpected body %q (base64=%v)", resp.Body, resp.IsBase64Encoded)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers %v", resp.Headers)
	}
}

func TestAdapterBinaryResponse(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
	})

	ev := events.APIGatewayV2HTTPRequest{RawPath: "/health"}
	resp, err := NewAdapter(h).Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Fatalf("unexpected response %+v", resp)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil || len(data) != 3 {
		t.Fatalf("unexpected body %q", resp.Body)
	}
}

func TestAdapterRejectsBadBase64Body(t *testing.T) {
	ev := events.APIGatewayV2HTTPRequest{RawPath: "/upload", Body: "%%%", IsBase64Encoded: true}
	if _, err := NewAdapter(http.NotFoundHandler()).Handle(context.Background(), ev); err == nil {
		t.Fatalf("expected error")
	}
}
