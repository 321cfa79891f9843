package models

// AppSettings holds process-wide journal settings. One instance, persisted
// locally and mirrored to the cloud when signed in.
type AppSettings struct {
	AutoExport            bool   `json:"autoExport"`
	LastExportDate        string `json:"lastExportDate,omitempty"`
	DefaultTradeInputMode string `json:"defaultTradeInputMode,omitempty"`
}

// UserProfile identifies the journal owner. The PIN is a client-side UX
// gate, not a security boundary; it is stored as entered.
type UserProfile struct {
	Name   string `json:"name"`
	PIN    string `json:"pin,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}
