package backend

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var capturedAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{"id":"p1"}`), nil
	})

	client := newTestClient(t, rt, WithTokenSource(func(context.Context) string { return "tok-123" }))

	var dest struct {
		ID string `json:"id"`
	}
	if err := client.Get(context.Background(), "/products/p1", &dest); err != nil {
		t.Fatalf("get: %v", err)
	}
	if capturedAuth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}
	if dest.ID != "p1" {
		t.Fatalf("unexpected decode %+v", dest)
	}
}

func TestClientOmitsAuthorizationWhenAnonymous(t *testing.T) {
	var sawAuth bool
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		_, sawAuth = req.Header["Authorization"]
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	client := newTestClient(t, rt, WithTokenSource(func(context.Context) string { return "" }))
	if err := client.Get(context.Background(), "/products", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if sawAuth {
		t.Fatalf("anonymous request must not carry Authorization")
	}
}

func TestClientPostSendsJSONBody(t *testing.T) {
	var capturedContentType string
	var capturedBody map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedContentType = req.Header.Get("Content-Type")
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"ok":true}`), nil
	})

	client := newTestClient(t, rt)
	payload := map[string]any{"productId": "p1", "quantity": 2}
	if err := client.Post(context.Background(), "/cart/c1/items", payload, nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	if capturedContentType != "application/json" {
		t.Fatalf("unexpected content type %q", capturedContentType)
	}
	if capturedBody["productId"] != "p1" {
		t.Fatalf("unexpected body %+v", capturedBody)
	}
}

func TestClientMultipartUsesBoundaryContentType(t *testing.T) {
	var capturedContentType string
	var fileNames []string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedContentType = req.Header.Get("Content-Type")
		mediaType, params, err := mime.ParseMediaType(capturedContentType)
		if err != nil {
			t.Fatalf("parse content type: %v", err)
		}
		if mediaType != "multipart/form-data" {
			t.Fatalf("unexpected media type %q", mediaType)
		}
		reader := multipart.NewReader(req.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("next part: %v", err)
			}
			if part.FormName() != "files" {
				t.Fatalf("unexpected field %q", part.FormName())
			}
			fileNames = append(fileNames, part.FileName())
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	client := newTestClient(t, rt)
	body := &MultipartBody{
		Field: "files",
		Files: []MultipartFile{
			{FileName: "front.png", Content: []byte{0x89, 0x50}},
			{FileName: "back.png", Content: []byte{0x89, 0x50}},
		},
	}
	if err := client.Post(context.Background(), "/products/p1/images", body, nil); err != nil {
		t.Fatalf("post multipart: %v", err)
	}
	if len(fileNames) != 2 || fileNames[0] != "front.png" {
		t.Fatalf("unexpected parts %v", fileNames)
	}
}

func TestClientInvokesUnauthorizedHookOn401(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"message":"expired"}`), nil
	})

	var hookCalls int
	client := newTestClient(t, rt, WithUnauthorizedHook(func(context.Context) { hookCalls++ }))

	err := client.Get(context.Background(), "/cart/user", nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if hookCalls != 1 {
		t.Fatalf("expected one hook invocation, got %d", hookCalls)
	}
}

func TestClientWrapsOtherFailuresWithStatus(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusConflict, `{"message":"out of stock"}`), nil
	})

	client := newTestClient(t, rt)
	err := client.Post(context.Background(), "/cart/c1/items", map[string]any{"productId": "p1"}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got := StatusCode(err); got != http.StatusConflict {
		t.Fatalf("expected status 409 in chain, got %d", got)
	}
}

func TestClientDecodesNothingOn204(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNoContent, ``), nil
	})

	client := newTestClient(t, rt)
	dest := map[string]any{}
	if err := client.Delete(context.Background(), "/reviews/r1", &dest); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(dest) != 0 {
		t.Fatalf("204 must not decode, got %+v", dest)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  ", time.Second); err == nil {
		t.Fatal("expected error without base url")
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, WithHTTPClient(&http.Client{Transport: rt}))
	client, err := NewClient("http://backend.test/api", time.Second, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
