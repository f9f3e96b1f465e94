package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const testManifest = `{
	"formatVersion": 1,
	"passTypeIdentifier": "pass.com.example.boarding",
	"serialNumber": "AB-1234",
	"description": "Boarding pass",
	"organizationName": "Example Air",
	"logoText": "LOGO",
	"webServiceURL": "https://example.com/api/",
	"backgroundColor": "rgb(61, 174, 233)",
	"relevantDate": "2021-06-27T14:30:00+02:00",
	"locations": [{"latitude": 48.8, "longitude": 9.18}],
	"barcodes": [{"format": "PKBarcodeFormatAztec", "message": "M1DOE/JOHN", "messageEncoding": "iso-8859-1"}],
	"boardingPass": {
		"transitType": "PKTransitTypeAir",
		"headerFields": [{"key": "gate", "label": "GATE", "value": "B12", "changeMessage": "Gate changed to %@"}],
		"primaryFields": [{"key": "origin", "label": "From", "value": "SFO"}],
		"secondaryFields": [{"key": "departure", "dateStyle": "PKDateStyleShort", "value": "2021-06-27T14:30:00+02:00"}]
	}
}`

type zipEntry struct {
	name string
	data []byte
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = f.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func buildTestPass(t *testing.T) []byte {
	t.Helper()
	return buildZip(t,
		zipEntry{"pass.json", []byte(testManifest)},
		zipEntry{"icon.png", testPNG(t, 29, 29)},
		zipEntry{"icon@2x.png", testPNG(t, 58, 58)},
		zipEntry{"logo.png", testPNG(t, 160, 50)},
		zipEntry{"de.lproj/pass.strings", []byte(`"GATE" = "Flugsteig"; "LOGO" = "Logo DE"; "Gate changed to %@" = "Neuer Flugsteig: %@";`)},
	)
}

func newTestState(t *testing.T, storage PassStorage) *ServerState {
	t.Helper()
	metrics := NewMetrics()
	documents, err := NewDocumentCache(storage, 16, metrics)
	require.NoError(t, err)
	return &ServerState{
		passStorage:     storage,
		documents:       documents,
		converter:       PassSummaryConverterImpl{},
		metrics:         metrics,
		defaultLanguage: language.English,
	}
}

func startTestServer(t *testing.T, state *ServerState) *httptest.Server {
	t.Helper()
	srv, err := NewServer(state, ServerConfig{Host: "localhost", Port: 0})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url string, body []byte, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}
