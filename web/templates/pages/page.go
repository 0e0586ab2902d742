// Package pages holds full HTML documents.
package pages

//go:generate templ generate

// htmxConfig disables the local history cache so every back/forward is
// restored from the server. 4xx bodies are swapped so request errors reach
// the notice area; 5xx bodies are not.
const htmxConfig = `{"historyCacheSize":0,"refreshOnHistoryMiss":false,` +
	`"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},` +
	`{"code":"4..","swap":true,"error":true},{"code":"...","swap":false,"error":true}]}`
