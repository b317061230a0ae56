package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDoer struct {
	calls int
	doFn  func(*http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(r *http.Request) (*http.Response, error) {
	f.calls++
	return f.doFn(r)
}

func stubResponse(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	}
}

func newTestClient(t *testing.T, d doer, opts ...ClientOptFn) *Client {
	t.Helper()
	client, err := New(append([]ClientOptFn{WithAddr("http://canteen.test/api"), withDoer(d)}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestClientAttachesRawToken(t *testing.T) {
	token := gofakeit.LetterN(40)

	var got *http.Request
	d := &fakeDoer{doFn: func(r *http.Request) (*http.Response, error) {
		got = r
		return stubResponse(http.StatusOK, `{"data":{"id":7}}`)(r)
	}}
	client := newTestClient(t, d, WithStaticToken(token), WithHeader("X-Client", "cli"))

	var out struct {
		ID int64 `json:"id"`
	}
	err := client.Get(t.Context(), "/cart/getCart", url.Values{"canteenId": {"3"}}, &out)
	require.NoError(t, err)

	assert.EqualValues(t, 7, out.ID)
	assert.Equal(t, token, got.Header.Get("Authorization"), "token is sent without a scheme prefix")
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Equal(t, "cli", got.Header.Get("X-Client"))
	assert.Equal(t, "/api/cart/getCart", got.URL.Path)
	assert.Equal(t, "3", got.URL.Query().Get("canteenId"))
}

func TestClientMissingTokenFailsBeforeNetwork(t *testing.T) {
	d := &fakeDoer{doFn: stubResponse(http.StatusOK, `{}`)}
	client := newTestClient(t, d)

	err := client.Post(t.Context(), "/cart/add", map[string]int{"itemId": 1}, nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, d.calls)
}

func TestClientTokenSourceError(t *testing.T) {
	d := &fakeDoer{doFn: stubResponse(http.StatusOK, `{}`)}
	client := newTestClient(t, d, WithTokenSource(func(context.Context) (string, error) {
		return "", errors.New("store down")
	}))

	err := client.Get(t.Context(), "/cart/getCart", nil, nil)
	require.EqualError(t, err, "token source: store down")
	assert.Zero(t, d.calls)
}

func TestClientClassifiesResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		doErr      error
		wantKind   domain.OutcomeKind
		wantReason string
	}{
		{
			name:     "ok envelope",
			status:   http.StatusOK,
			body:     `{"data":{"id":1}}`,
			wantKind: domain.OutcomeSuccess,
		},
		{
			name:     "empty body",
			status:   http.StatusNoContent,
			wantKind: domain.OutcomeSuccess,
		},
		{
			name:       "soft failure with string errors",
			status:     http.StatusOK,
			body:       `{"errors":["Quantity exceeds limit"]}`,
			wantKind:   domain.OutcomeRejected,
			wantReason: "Quantity exceeds limit",
		},
		{
			name:       "soft failure with object errors",
			status:     http.StatusOK,
			body:       `{"data":null,"errors":[{"message":"Item unavailable"}]}`,
			wantKind:   domain.OutcomeRejected,
			wantReason: "Item unavailable",
		},
		{
			name:     "empty errors array is success",
			status:   http.StatusOK,
			body:     `{"data":{},"errors":[]}`,
			wantKind: domain.OutcomeSuccess,
		},
		{
			name:       "validation rejection",
			status:     http.StatusBadRequest,
			body:       `{"message":"Menu is Different. Please select items from same menu"}`,
			wantKind:   domain.OutcomeRejected,
			wantReason: domain.MenuMismatchReason,
		},
		{
			name:       "rejection with errors only",
			status:     http.StatusUnprocessableEntity,
			body:       `{"errors":["bad quantity"]}`,
			wantKind:   domain.OutcomeRejected,
			wantReason: "bad quantity",
		},
		{
			name:     "expired token",
			status:   http.StatusUnauthorized,
			body:     `{"message":"jwt expired"}`,
			wantKind: domain.OutcomeUnauthenticated,
		},
		{
			name:     "server error",
			status:   http.StatusBadGateway,
			body:     `upstream down`,
			wantKind: domain.OutcomeTransportError,
		},
		{
			name:     "garbage body",
			status:   http.StatusOK,
			body:     `<html>`,
			wantKind: domain.OutcomeTransportError,
		},
		{
			name:     "network failure",
			doErr:    errors.New("connection refused"),
			wantKind: domain.OutcomeTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDoer{doFn: stubResponse(tt.status, tt.body)}
			if tt.doErr != nil {
				d.doFn = func(*http.Request) (*http.Response, error) { return nil, tt.doErr }
			}
			client := newTestClient(t, d, WithStaticToken("token"))

			err := client.Post(t.Context(), "/cart/updateCartItem", map[string]int{"quantity": 2}, nil)
			outcome := domain.OutcomeOf(err)

			assert.Equal(t, tt.wantKind, outcome.Kind, "err: %v", err)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, outcome.Reason)
			}
			assert.Equal(t, 1, d.calls, "no retries")
		})
	}
}

func TestClientMenuMismatchIsDetectable(t *testing.T) {
	d := &fakeDoer{doFn: stubResponse(http.StatusBadRequest, `{"message":"Menu is Different. Please select items from same menu"}`)}
	client := newTestClient(t, d, WithStaticToken("token"))

	err := client.Post(t.Context(), "/cart/add", struct{}{}, nil)
	require.ErrorIs(t, err, domain.ErrMenuMismatch)
}

func TestClientPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"name":     r.FormValue("name"),
				"location": r.FormValue("location"),
				"file":     header.Filename,
				"size":     len(content),
			},
		})
	}))
	defer srv.Close()

	client, err := New(WithAddr(srv.URL), WithStaticToken("token"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	form := NewForm().Set("name", "North Block").Set("location", "").File("image", "logo.png", []byte("png-bytes"))

	var out struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		File     string `json:"file"`
		Size     int    `json:"size"`
	}
	require.NoError(t, client.PostForm(t.Context(), "/canteen/createCanteen", form, &out))

	assert.Equal(t, "North Block", out.Name)
	assert.Empty(t, out.Location, "blank fields are not sent")
	assert.Equal(t, "logo.png", out.File)
	assert.Equal(t, len("png-bytes"), out.Size)
}

func TestNewRequiresAddr(t *testing.T) {
	_, err := New()
	require.EqualError(t, err, "api address is empty")
}
