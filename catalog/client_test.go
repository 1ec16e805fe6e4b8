package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Teclado", "price": 25990, "stock": 10, "images": ["t.png"]},
			{"id": 2, "titulo": "Mochila", "precio": 15990, "stock": 3, "imagenes": ["m.png"]},
			{"titulo": "Sin id", "precio": 100}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	snap, err := c.FetchProducts(context.Background())
	require.NoError(t, err)

	// the id-less entry is dropped, the rest normalized
	require.Equal(t, 2, snap.Len())
	require.Equal(t, "Teclado", snap.Lookup("1").Name)
	require.Equal(t, int64(15990), snap.Lookup("2").Price)
}

func TestFetchProductsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.FetchProducts(context.Background())
	require.Error(t, err)
}

func TestLoadSeeds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "envios.json"), []byte(`[
		{"id":"retiro","nombre":"Retiro en tienda","costo":0,"dias":"Hoy"},
		{"id":"std","nombre":"Envío estándar","costo":3990,"dias":"2-4 días"}
	]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cupones.json"), []byte(`[
		{"codigo":"diez","tipo":"porcentaje","valor":10},
		{"codigo":"enviogratis","tipo":"envio"}
	]`), 0o644))

	methods, err := LoadShippingMethods(dir)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	require.Equal(t, "retiro", methods[0].ID)

	coupons, err := LoadCoupons(dir)
	require.NoError(t, err)
	require.Len(t, coupons, 2)
	require.Contains(t, coupons, "DIEZ")
	require.Contains(t, coupons, "ENVIOGRATIS")
}

func TestLoadSeedsMissingDir(t *testing.T) {
	_, err := LoadShippingMethods(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
