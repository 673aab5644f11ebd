package composables_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
)

func TestFlash_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	composables.SetFlash(rec, "flash", []byte("Rolled back to version 3."))

	req := httptest.NewRequest(http.MethodGet, "/admin/ux/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	rec2 := httptest.NewRecorder()
	got, err := composables.UseFlash(rec2, req, "flash")
	require.NoError(t, err)
	assert.Equal(t, "Rolled back to version 3.", string(got))

	expired := rec2.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Equal(t, -1, expired[0].MaxAge)
}

func TestFlash_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := composables.UseFlash(httptest.NewRecorder(), req, "flash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

type rollbackForm struct {
	Version int    `form:"version"`
	Module  string `form:"module"`
}

func TestUseForm(t *testing.T) {
	body := url.Values{"version": {"4"}, "module": {"dashboard"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	dto, err := composables.UseForm(&rollbackForm{}, req)
	require.NoError(t, err)
	assert.Equal(t, 4, dto.Version)
	assert.Equal(t, "dashboard", dto.Module)
}

func TestFlash_IgnoresQueryParameter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?flash=spoofed", nil)
	got, err := composables.UseFlash(httptest.NewRecorder(), req, "flash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUseIdentity_WithoutSession(t *testing.T) {
	_, err := composables.UseSession(context.Background())
	require.ErrorIs(t, err, composables.ErrNoSession)

	_, err = composables.UseIdentity(context.Background())
	require.ErrorIs(t, err, backend.ErrMissingIdentity)

	pinned := &backend.Identity{OrganizationID: "org-1", UserID: "user-1"}
	got, err := composables.UseIdentity(composables.WithIdentity(context.Background(), pinned))
	require.NoError(t, err)
	assert.Same(t, pinned, got)
}

func TestUseLogger_FallsBack(t *testing.T) {
	assert.NotNil(t, composables.UseLogger(context.Background()))
}
