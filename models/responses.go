package models

// ErrorResponse is returned when an uploaded pass cannot be loaded.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type BundleResponse struct {
	Entries []BundleEntry `json:"entries"`
}

// BundleEntry reports the outcome for one file of an uploaded bundle. Either
// ID or Error is set.
type BundleEntry struct {
	Name         string `json:"name"`
	ID           string `json:"id,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Error        string `json:"error,omitempty"`
}
