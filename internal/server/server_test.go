package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/service"
	"github.com/KaramelBytes/rulescout/internal/store"
)

const hrCSV = `employee_name,salary,present_days,absent_days,rating
Asha,85000,28,2,4.6
Ravi,30000,20,10,2.5
`

// riskCSV is separable on attendance: below 70 is High risk.
func riskCSV(n int) string {
	var b strings.Builder
	b.WriteString("emp_id,attendance,dept,risk_level\n")
	for i := 0; i < n; i++ {
		a := 50 + i*50/n
		if i%2 == 1 {
			a = 80 + i*20/n
		}
		risk := "Low"
		if a < 70 {
			risk = "High"
		}
		fmt.Fprintf(&b, "%d,%d,%s,%s\n", i+1, a, []string{"HR", "IT", "Ops"}[i%3], risk)
	}
	return b.String()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(New(service.New(service.Options{Store: st}), Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// upload posts a multipart form with a "file" part and optional extra fields.
func upload(t *testing.T, url, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got HealthResponse
	decode(t, resp, &got)
	assert.Equal(t, HealthResponse{Status: "ok", Message: "API is running"}, got)
}

func TestAnalyzeUpload(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv.URL+"/analyze?correlations=true", "hr.csv", hrCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Summary struct {
			DomainDetected string `json:"domain_detected"`
			TotalRows      int    `json:"total_rows"`
			TotalColumns   int    `json:"total_columns"`
		} `json:"summary"`
		Recommendations []string `json:"recommendations"`
	}
	decode(t, resp, &got)
	assert.Equal(t, "HR", got.Summary.DomainDetected)
	assert.Equal(t, 2, got.Summary.TotalRows)
	assert.Equal(t, 5, got.Summary.TotalColumns)
	assert.NotEmpty(t, got.Recommendations)
}

func TestUploadErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name     string
		filename string
		content  string
		detail   string
	}{
		{"empty", "hr.csv", "", "Uploaded file is empty"},
		{"header only", "hr.csv", "a,b\n", "Uploaded file is empty"},
		{"sql", "dump.sql", "SELECT 1;", "SQL file execution requires database connection"},
		{"bad xlsx", "hr.xlsx", "not a zip", "Error parsing file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, srv.URL+"/analyze", tt.filename, tt.content, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var got ErrorResponse
			decode(t, resp, &got)
			assert.Contains(t, got.Detail, tt.detail)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := New(service.New(service.Options{}), Options{MaxUploadBytes: 512}).Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "big.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(hrCSV + strings.Repeat("Meena,40000,25,5,3.8\n", 200)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Contains(t, got.Detail, "exceeds the upload limit of 512 bytes")
}

func TestUploadWithoutExtensionIsReadAsCSV(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv.URL+"/analyze", "export", hrCSV, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingFileField(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/decision", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecision(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv.URL+"/decision?use_ml=false", "hr.csv", hrCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		DetectedDomain string `json:"detected_domain"`
		AppliedRules   struct {
			TotalRecordsAnalyzed int `json:"total_records_analyzed"`
		} `json:"applied_rules"`
		MLPatterns any `json:"ml_pattern_recognition"`
	}
	decode(t, resp, &got)
	assert.Equal(t, "HR", got.DetectedDomain)
	assert.Equal(t, 2, got.AppliedRules.TotalRecordsAnalyzed)
	assert.Nil(t, got.MLPatterns)

	bad := upload(t, srv.URL+"/decision?use_ml=maybe", "hr.csv", hrCSV, nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPredictEngine(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv.URL+"/predict-engine", "hr.csv", hrCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		TotalRecords int `json:"total_records"`
		Predictions  struct {
			Salary *struct {
				Predictions []struct {
					Prediction string `json:"prediction"`
				} `json:"predictions"`
			} `json:"salary"`
		} `json:"predictions"`
	}
	decode(t, resp, &got)
	assert.Equal(t, 2, got.TotalRecords)
	require.NotNil(t, got.Predictions.Salary)
	require.Len(t, got.Predictions.Salary.Predictions, 2)
	assert.Equal(t, "High", got.Predictions.Salary.Predictions[0].Prediction)
	assert.Equal(t, "Low", got.Predictions.Salary.Predictions[1].Prediction)
}

func TestDatasetWorkflow(t *testing.T) {
	srv := newTestServer(t)

	resp := upload(t, srv.URL+"/datasets", "risk.csv", riskCSV(40), map[string]string{
		"input": `{"attendance": 55, "dept": "IT"}`,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created service.AnalysisResult
	decode(t, resp, &created)
	require.NotEmpty(t, created.DatasetID)
	assert.True(t, created.ModelAvailable)
	assert.Equal(t, "risk_level", created.TargetColumn)
	assert.Equal(t, "High", created.PredictedOutcome)

	body := strings.NewReader(`{"attendance": 95, "dept": "HR"}`)
	presp, err := http.Post(srv.URL+"/datasets/"+created.DatasetID+"/predict", "application/json", body)
	require.NoError(t, err)
	defer presp.Body.Close()
	require.Equal(t, http.StatusOK, presp.StatusCode)
	var pred service.PredictResult
	decode(t, presp, &pred)
	assert.Equal(t, "Low", pred.PredictedOutcome)
	assert.NotEmpty(t, pred.PredictionID)

	lresp, err := http.Get(srv.URL + "/datasets/" + created.DatasetID + "/predictions")
	require.NoError(t, err)
	defer lresp.Body.Close()
	var logged []store.PredictionRecord
	decode(t, lresp, &logged)
	require.Len(t, logged, 2)
	assert.Equal(t, pred.PredictionID, logged[1].PredictionID)

	dresp, err := http.Get(srv.URL + "/datasets")
	require.NoError(t, err)
	defer dresp.Body.Close()
	var infos []store.DatasetInfo
	decode(t, dresp, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, created.DatasetID, infos[0].ID)
	assert.True(t, infos[0].HasModel)
	assert.Equal(t, 40, infos[0].Rows)
}

func TestPredictErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/datasets/unknown/predict", "application/json", strings.NewReader(`{"a": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var got ErrorResponse
	decode(t, resp, &got)
	assert.Equal(t, "Model not found. Please analyze a dataset first.", got.Detail)

	empty, err := http.Post(srv.URL+"/datasets/unknown/predict", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer empty.Body.Close()
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	hresp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	hresp.Body.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var b bytes.Buffer
	_, err = b.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, b.String(), `rulescout_http_requests_total{code="200",method="GET",route="/health"}`)
}
