package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGSTIN(t *testing.T) {
	got, err := NormalizeGSTIN(" 27aapfu0939f1zv ")
	require.NoError(t, err)
	assert.Equal(t, testGSTIN, got)

	for _, bad := range []string{"", "27AAPFU0939F1Z", "27AAPFU0939F0ZV", "XXAAPFU0939F1ZV"} {
		_, err := NormalizeGSTIN(bad)
		assert.True(t, IsKind(err, KindValidation), bad)
	}
}

func TestGSTClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/key/" + testGSTIN:
			_, _ = w.Write([]byte(`{"flag":true,"data":{"tradeNam":"Acme Networks","lgnm":"Acme Networks Pvt Ltd","sts":"Active",
				"pradr":{"addr":{"bno":"12","st":"MG Road","loc":"Camp","dst":"Pune","stcd":"Maharashtra","pncd":"411001"}}}}`))
		default:
			_, _ = w.Write([]byte(`{"flag":false,"message":"Invalid GSTIN"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client := NewGSTClient(srv.URL+"/", "key")
	ctx := context.Background()

	details, err := client.Lookup(ctx, testGSTIN)
	require.NoError(t, err)
	assert.Equal(t, "Acme Networks", details.TradeName)
	assert.Equal(t, "Acme Networks Pvt Ltd", details.LegalName)
	assert.Equal(t, "Active", details.Status)
	assert.Equal(t, "12, MG Road, Camp, Pune, Maharashtra, 411001", details.Address)

	_, err = client.Lookup(ctx, "29AAPFU0939F1ZV")
	assert.True(t, IsKind(err, KindValidation))

	t.Run("format only without key", func(t *testing.T) {
		details, err := NewGSTClient(srv.URL, "").Lookup(ctx, testGSTIN)
		require.NoError(t, err)
		assert.Equal(t, testGSTIN, details.GSTIN)
		assert.Empty(t, details.TradeName)
	})
}
