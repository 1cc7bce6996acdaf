package ultracache

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripCarrier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	other := httptest.NewRequest(http.MethodGet, "/other", nil)

	tests := []struct {
		name       string
		args       []any
		kwargs     map[string]any
		wantArgs   []any
		wantKwargs map[string]any
	}{
		{
			name:       "keyword",
			args:       []any{1, other},
			kwargs:     map[string]any{"request": req, "id": 1},
			wantArgs:   []any{1, other},
			wantKwargs: map[string]any{"id": 1},
		},
		{
			name:       "first positional only",
			args:       []any{1, req, other},
			kwargs:     map[string]any{"id": 1},
			wantArgs:   []any{1, other},
			wantKwargs: map[string]any{"id": 1},
		},
		{
			name:       "no carrier",
			args:       []any{1, "x"},
			kwargs:     map[string]any{"id": 1},
			wantArgs:   []any{1, "x"},
			wantKwargs: map[string]any{"id": 1},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, kwargs := stripCarrier[*http.Request](tt.args, tt.kwargs)
			require.Equal(t, tt.wantArgs, args)
			require.Equal(t, tt.wantKwargs, kwargs)
		})
	}
}

func TestStripCarrier_DoesNotMutateInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	args := []any{req, 1}
	kwargs := map[string]any{"request": req}

	stripCarrier[*http.Request](args, kwargs)
	stripCarrier[*http.Request](args, nil)

	require.Len(t, args, 2)
	require.Same(t, req, args[0])
	require.Contains(t, kwargs, "request")
}

func TestCallKeyArgs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := NewResponse()

	c := Call{
		Args:   []any{resp, 7},
		Kwargs: map[string]any{"req": req, "id": 1},
	}
	args, kwargs := c.keyArgs()
	require.Equal(t, []any{7}, args)
	require.Equal(t, map[string]any{"id": 1}, kwargs)
}

func TestCallCarriers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	c := Call{Kwargs: map[string]any{"req": req}}.carriers()
	require.Same(t, req, c.Request)
	require.NotNil(t, c.Response)
	require.Equal(t, http.StatusOK, c.Response.StatusCode)

	explicit := &Response{StatusCode: http.StatusCreated}
	c = Call{Response: explicit}.carriers()
	require.Nil(t, c.Request)
	require.Same(t, explicit, c.Response)
	require.NotNil(t, explicit.Header)
}

func TestCallForInvoke(t *testing.T) {
	c := Call{Request: httptest.NewRequest(http.MethodGet, "/", nil), Response: NewResponse()}

	stripped := c.forInvoke(Signature{})
	require.Nil(t, stripped.Request)
	require.Nil(t, stripped.Response)
	require.NotNil(t, c.Request)

	kept := c.forInvoke(Signature{Request: true, Response: true})
	require.Same(t, c.Request, kept.Request)
	require.Same(t, c.Response, kept.Response)
}
