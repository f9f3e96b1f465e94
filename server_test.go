package main

import (
	"bytes"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-pkpass/models"
)

func uploadTestPass(t *testing.T, ts string) models.PassSummary {
	t.Helper()
	resp, body := doRequest(t, http.MethodPost, ts+"/api/passes", buildTestPass(t), nil)
	mustStatus(t, resp, http.StatusCreated, body)
	return decodeJSON[models.PassSummary](t, body)
}

func TestHealth(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/health", nil, nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.JSONEq(t, `{"ok":true}`, string(body))
}

func TestUploadPass(t *testing.T) {
	storage := NewInMemoryPassStorage()
	ts := startTestServer(t, newTestState(t, storage))

	summary := uploadTestPass(t, ts.URL)
	require.NotEmpty(t, summary.ID)
	require.Equal(t, "boardingPass", summary.Type)
	require.Equal(t, "air", summary.TransitType)
	require.Equal(t, "AB-1234", summary.SerialNumber)
	require.Equal(t, "Example Air", summary.OrganizationName)
	require.Equal(t, "LOGO", summary.LogoText)
	require.Equal(t, "#3daee9", summary.BackgroundColor)
	require.Equal(t, "", summary.LabelColor)
	require.Equal(t, 500, summary.MaximumDistance)
	require.Equal(t, "https://example.com/api/v1/passes/pass.com.example.boarding/AB-1234", summary.PassUpdateURL)
	require.Equal(t, []string{"icon", "logo"}, summary.Images)
	require.NotEmpty(t, summary.Icon)
	require.NotNil(t, summary.RelevantDate)
	require.Nil(t, summary.ExpirationDate)

	require.Len(t, summary.Barcodes, 1)
	require.Equal(t, "aztec", summary.Barcodes[0].Format)
	require.Equal(t, "M1DOE/JOHN", summary.Barcodes[0].Message)

	require.Len(t, summary.Locations, 1)
	require.NotNil(t, summary.Locations[0].Latitude)
	require.InDelta(t, 48.8, *summary.Locations[0].Latitude, 1e-9)
	require.Nil(t, summary.Locations[0].Altitude)

	require.Len(t, summary.HeaderFields, 1)
	require.Equal(t, "GATE", summary.HeaderFields[0].Label)
	require.Equal(t, "Gate changed to B12", summary.HeaderFields[0].ChangeMessage)
	require.Len(t, summary.SecondaryFields, 1)
	require.Equal(t, "date_time", summary.SecondaryFields[0].Kind)
	require.Equal(t, "6/27/21 2:30 PM", summary.SecondaryFields[0].Value)
	require.Empty(t, summary.BackFields)

	stored, err := storage.RetrievePass(summary.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("PK\x03\x04"), stored[:4])
}

func TestUploadPassErrors(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))

	tests := []struct {
		name string
		body []byte
		kind string
	}{
		{"not an archive", []byte("garbage"), "archive"},
		{"missing manifest", buildZip(t, zipEntry{"icon.png", []byte("x")}), "missing_manifest"},
		{"invalid manifest", buildZip(t, zipEntry{"pass.json", []byte(`{"generic":`)}), "manifest_parse"},
		{"unsupported version", buildZip(t, zipEntry{"pass.json", []byte(`{"formatVersion": 2, "generic": {}}`)}), "unsupported_version"},
		{"missing pass data", buildZip(t, zipEntry{"pass.json", []byte(`{"formatVersion": 1}`)}), "missing_pass_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/passes", tt.body, nil)
			mustStatus(t, resp, http.StatusBadRequest, body)
			errResp := decodeJSON[models.ErrorResponse](t, body)
			require.Equal(t, tt.kind, errResp.Error)
			require.NotEmpty(t, errResp.Message)
		})
	}

	t.Run("empty body", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/passes", nil, nil)
		mustStatus(t, resp, http.StatusBadRequest, body)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/passes", nil, nil)
		mustStatus(t, resp, http.StatusMethodNotAllowed, body)
	})
}

func TestGetPassLocalized(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))
	id := uploadTestPass(t, ts.URL).ID

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+id, nil, map[string]string{"Accept-Language": "de-DE,de;q=0.9,en;q=0.5"})
	mustStatus(t, resp, http.StatusOK, body)
	summary := decodeJSON[models.PassSummary](t, body)

	require.Equal(t, id, summary.ID)
	require.Equal(t, "Logo DE", summary.LogoText)
	require.Equal(t, "Flugsteig", summary.HeaderFields[0].Label)
	require.Equal(t, "Neuer Flugsteig: B12", summary.HeaderFields[0].ChangeMessage)
	require.Equal(t, "27.06.21 14:30", summary.SecondaryFields[0].Value)

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+id, nil, nil)
	mustStatus(t, resp, http.StatusOK, body)
	summary = decodeJSON[models.PassSummary](t, body)
	require.Equal(t, "LOGO", summary.LogoText)
}

func TestGetPassNotFound(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))

	for _, path := range []string{"/api/passes/unknown", "/api/passes/unknown/raw", "/api/passes/unknown/images/icon"} {
		resp, body := doRequest(t, http.MethodGet, ts.URL+path, nil, nil)
		mustStatus(t, resp, http.StatusNotFound, body)
	}
}

func TestGetImage(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))
	id := uploadTestPass(t, ts.URL).ID
	base := ts.URL + "/api/passes/" + id + "/images/"

	t.Run("falls back to available density", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, base+"icon?dpr=3", nil, nil)
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		require.Equal(t, "2", resp.Header.Get("X-Device-Pixel-Ratio"))

		cfg, err := png.DecodeConfig(bytes.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, 58, cfg.Width)
		require.Equal(t, 58, cfg.Height)
	})

	t.Run("resized to fit", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, base+"logo?max=80", nil, nil)
		mustStatus(t, resp, http.StatusOK, body)

		cfg, err := png.DecodeConfig(bytes.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, 80, cfg.Width)
		require.Equal(t, 25, cfg.Height)
	})

	t.Run("missing image", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, base+"strip", nil, nil)
		mustStatus(t, resp, http.StatusNotFound, body)
	})

	for _, query := range []string{"dpr=abc", "dpr=0", "dpr=4", "max=-1", "max=big"} {
		t.Run("invalid "+query, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodGet, base+"icon?"+query, nil, nil)
			mustStatus(t, resp, http.StatusBadRequest, body)
		})
	}
}

func TestGetRawPass(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))
	data := buildTestPass(t)

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/passes", data, nil)
	mustStatus(t, resp, http.StatusCreated, body)
	id := decodeJSON[models.PassSummary](t, body).ID

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+id+"/raw", nil, nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.Equal(t, pkpassContentType, resp.Header.Get("Content-Type"))
	require.Equal(t, data, body)
}

func TestDeletePass(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))
	id := uploadTestPass(t, ts.URL).ID

	resp, body := doRequest(t, http.MethodDelete, ts.URL+"/api/passes/"+id, nil, nil)
	mustStatus(t, resp, http.StatusNoContent, body)

	// the cached document is dropped together with the stored bytes
	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+id, nil, nil)
	mustStatus(t, resp, http.StatusNotFound, body)

	resp, body = doRequest(t, http.MethodDelete, ts.URL+"/api/passes/"+id, nil, nil)
	mustStatus(t, resp, http.StatusNotFound, body)
}

func TestUploadBundle(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))

	bundle := buildZip(t,
		zipEntry{"first.pkpass", buildTestPass(t)},
		zipEntry{"broken.pkpass", buildZip(t, zipEntry{"pass.json", []byte(`{"generic": [}`)})},
		zipEntry{"readme.txt", []byte("not a pass")},
	)

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/bundles", bundle, nil)
	mustStatus(t, resp, http.StatusOK, body)
	result := decodeJSON[models.BundleResponse](t, body)

	require.Len(t, result.Entries, 3)
	require.Equal(t, "first.pkpass", result.Entries[0].Name)
	require.NotEmpty(t, result.Entries[0].ID)
	require.Equal(t, "AB-1234", result.Entries[0].SerialNumber)
	require.Empty(t, result.Entries[0].Error)
	require.Equal(t, models.BundleEntry{Name: "broken.pkpass", Error: "manifest_parse"}, result.Entries[1])
	require.Equal(t, models.BundleEntry{Name: "readme.txt", Error: "archive"}, result.Entries[2])

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+result.Entries[0].ID, nil, nil)
	mustStatus(t, resp, http.StatusOK, body)

	t.Run("not an archive", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/bundles", []byte("garbage"), nil)
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, "archive", decodeJSON[models.ErrorResponse](t, body).Error)
	})
}

func TestMetrics(t *testing.T) {
	ts := startTestServer(t, newTestState(t, NewInMemoryPassStorage()))
	id := uploadTestPass(t, ts.URL).ID

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/passes", []byte("garbage"), nil)
	mustStatus(t, resp, http.StatusBadRequest, body)
	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/passes/"+id+"/images/icon", nil, nil)
	mustStatus(t, resp, http.StatusOK, body)

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/metrics", nil, nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.Contains(t, string(body), `pkpass_pass_loads_total{result="ok"} 1`)
	require.Contains(t, string(body), `pkpass_pass_loads_total{result="archive"} 1`)
	require.Contains(t, string(body), `pkpass_image_requests_total{result="served"} 1`)
	require.Contains(t, string(body), `pkpass_document_cache_lookups_total{result="hit"} 1`)
}

func TestLoadErrorKind(t *testing.T) {
	require.Equal(t, "unknown", loadErrorKind(ErrPassNotFound))
}
