package api

import (
	"runtime"

	"github.com/rs/xid"
)

// Device describes the pseudo browser the session presents to the
// API. The web client sends this blob on auth and profile calls.
type Device struct {
	UUID    string `json:"uuid"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Locale  string `json:"locale"`
	Trusted string `json:"trusted"`
	Version string `json:"version"`
}

func newDevice() Device {
	return Device{
		UUID:    xid.New().String(),
		OS:      runtime.GOOS + " " + runtime.GOARCH,
		Browser: "Chrome 132",
		Locale:  "en",
		Trusted: "true",
		Version: "4.0.x",
	}
}
