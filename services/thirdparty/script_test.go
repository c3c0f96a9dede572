package thirdparty

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sdk.js":
			w.Write([]byte(`window.paypal = { HostedButtons: function() {} };`))
		case "/old.js":
			w.Write([]byte(`window.paypal = { Buttons: function() {} };`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	assert.NoError(t, FetchScript(ctx, srv.Client(), srv.URL+"/sdk.js", "HostedButtons"))
	assert.ErrorIs(t, FetchScript(ctx, srv.Client(), srv.URL+"/old.js", "HostedButtons"), ErrCapabilityMissing)
	assert.Error(t, FetchScript(ctx, srv.Client(), srv.URL+"/missing.js", "HostedButtons"))
}
