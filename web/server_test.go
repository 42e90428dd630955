package web

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radkit/spekdose/devices"
	"github.com/radkit/spekdose/spek/kramers"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dm, err := devices.NewManager()
	require.NoError(t, err)

	srv, err := NewServer(kramers.New(), dm, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func chestForm() url.Values {
	return url.Values{
		"kvp":                 {"120"},
		"ma":                  {"100"},
		"time_s":              {"0.1"},
		"anode_angle":         {"12"},
		"ssd_cm":              {"100"},
		"filter_material":     {"Al"},
		"filter_thickness_mm": {"2.5"},
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}

func postForm(t *testing.T, url string, form url.Values) (*http.Response, string) {
	t.Helper()

	resp, err := http.PostForm(url, form)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "X-ray Dosimetry Calculator")
	assert.Contains(t, body, "ALULA Dental")
	assert.NotContains(t, body, "ESAK [mGy]")
}

func TestCalculate(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postForm(t, ts.URL+"/calculate", chestForm())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ESAK [mGy]")
	assert.Contains(t, body, "HVL1 (Al)")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "/export/json?")

	// Submitted values are echoed back into the form.
	assert.Contains(t, body, `value="120"`)
}

func TestCalculateWithDevicePreset(t *testing.T) {
	ts := newTestServer(t)

	form := chestForm()
	form.Set("device", "ALULA Dental")
	form.Del("filter_material")
	form.Del("filter_thickness_mm")

	resp, body := postForm(t, ts.URL+"/calculate", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ESAK [mGy]")
}

func TestCalculateErrorBanner(t *testing.T) {
	ts := newTestServer(t)

	form := chestForm()
	form.Set("kvp", "0")

	resp, body := postForm(t, ts.URL+"/calculate", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "calculation failed")
	assert.NotContains(t, body, "ESAK [mGy]")
}

func TestCalculateBadInput(t *testing.T) {
	ts := newTestServer(t)

	form := chestForm()
	form.Set("ma", "not-a-number")

	resp, body := postForm(t, ts.URL+"/calculate", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "invalid value for ma")
}

func TestUnknownDevice(t *testing.T) {
	ts := newTestServer(t)

	form := chestForm()
	form.Set("device", "No Such Device")

	_, body := postForm(t, ts.URL+"/calculate", form)
	assert.Contains(t, body, "unknown device")
}

func TestExportEndpoints(t *testing.T) {
	ts := newTestServer(t)
	query := chestForm().Encode()

	cases := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/export/json", "application/json", `"esak_mgy"`},
		{"/export/csv", "text/csv", "Category,Parameter,Value"},
		{"/export/spectrum", "text/csv", "energy_kev,fluence_per_cm2_kev"},
		{"/export/report", "text/plain; charset=utf-8", "X-RAY DOSIMETRY CALCULATION REPORT"},
	}

	for _, tc := range cases {
		resp, body := get(t, ts.URL+tc.path+"?"+query)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tc.path)
		assert.Equal(t, tc.contentType, resp.Header.Get("Content-Type"), tc.path)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment"), tc.path)
		assert.Contains(t, body, tc.contains, tc.path)
	}
}

func TestExportBadQuery(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/export/json?kvp=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "export failed")
}
