package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHTTPClientVerify(t *testing.T) {
	var gotDocumentType string
	var gotFileName string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/verify", r.URL.Path)

		assert.NoError(t, r.ParseMultipartForm(32<<20))
		gotDocumentType = r.FormValue("document_type")
		file, header, err := r.FormFile("file")
		assert.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"verification_id": "vrf-123",
			"verification_status": "VERIFIED",
			"risk_assessment": {
				"total_score": 85,
				"risk_level": "LOW",
				"breakdown": {
					"zeta_factor": {"score": 40, "max": 50},
					"alpha_factor": {"score": 45, "max": 50}
				}
			},
			"extracted_data": {"owner_name": "Budi Santoso"}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 10*time.Second, 5*time.Second)
	assert.False(t, client.DemoMode())

	result, err := client.Verify(context.Background(), SubmitRequest{
		UserID:       uuid.New(),
		DocumentType: TypeSHM,
		FileName:     "cert.png",
		ContentType:  "image/png",
		FileContent:  []byte("fake image bytes"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "SHM", gotDocumentType)
	assert.Equal(t, "cert.png", gotFileName)
	assert.Equal(t, "vrf-123", result.VerificationID)
	assert.Equal(t, StatusVerified, result.Status)
	assert.Equal(t, RiskLow, result.RiskAssessment.RiskLevel)
	assert.NotNil(t, result.ExtractedData)
	assert.Equal(t, "Budi Santoso", *result.ExtractedData.OwnerName)

	// Factor order must follow the wire payload, not a sort.
	assert.Equal(t, []string{"zeta_factor", "alpha_factor"}, result.RiskAssessment.FactorOrder())
}

func TestHTTPClientVerifySurfacesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"ocr failed"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 10*time.Second, 5*time.Second)

	_, err := client.Verify(context.Background(), SubmitRequest{
		DocumentType: TypeSHM,
		FileName:     "cert.png",
		FileContent:  []byte("x"),
	})

	assert.Error(t, err)
	assert.Equal(t, "ocr failed", err.Error())

	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
}

func TestHTTPClientVerifyGenericFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 10*time.Second, 5*time.Second)

	_, err := client.Verify(context.Background(), SubmitRequest{
		DocumentType: TypeSHM,
		FileName:     "cert.png",
		FileContent:  []byte("x"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/verify/vrf-123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"verification_id":"vrf-123","verification_status":"NEEDS_REVIEW","risk_assessment":{"total_score":55,"risk_level":"MEDIUM"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 10*time.Second, 5*time.Second)

	result, err := client.Lookup(context.Background(), "vrf-123")
	assert.NoError(t, err)
	assert.Equal(t, StatusNeedsReview, result.Status)
}

func TestHTTPClientHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := NewHTTPClient(healthy.URL, 10*time.Second, 5*time.Second)
	assert.NoError(t, client.Health(context.Background()))

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	client = NewHTTPClient(sick.URL, 10*time.Second, 5*time.Second)
	assert.Error(t, client.Health(context.Background()))
}

func TestHTTPClientVerifyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 10*time.Second, 5*time.Second)
	_, err := client.Verify(ctx, SubmitRequest{DocumentType: TypeSHM, FileName: "cert.png", FileContent: []byte("x")})
	assert.Error(t, err)
}
