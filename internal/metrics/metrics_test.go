package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/download/{filename}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/download/{filename}", "404"))

	for _, name := range []string{"a.txt", "b.txt"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/download/{filename}", "404"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordStorageOperation(t *testing.T) {
	beforeOps := testutil.ToFloat64(storageOperationsTotal.WithLabelValues("upload", "success"))
	beforeBytes := testutil.ToFloat64(bytesUploaded)

	RecordStorageOperation("upload", "success", 10, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(storageOperationsTotal.WithLabelValues("upload", "success"))-beforeOps)
	assert.Equal(t, 10.0, testutil.ToFloat64(bytesUploaded)-beforeBytes)
}
