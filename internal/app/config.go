package app

import "net/http"

// Config holds runtime wiring options for building the client.
type Config struct {
	Home      string       // config directory, e.g. $HOME/.kittycore
	ServerURL string       // coordinator base URL, e.g. http://127.0.0.1:4000
	HTTP      *http.Client // optional; defaults to http.DefaultClient
}
