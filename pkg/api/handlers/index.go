package handlers

import (
	"net/http"
)

// indexPage is the static page served at the root. It documents the two
// operations a client needs.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>bytedrop</title>
<style>
body { font-family: monospace; max-width: 42em; margin: 3em auto; padding: 0 1em; color: #222; }
pre { background: #f4f4f4; padding: 1em; overflow-x: auto; }
</style>
</head>
<body>
<h1>bytedrop</h1>
<p>Drop bytes, get a key, fetch them back until they expire.</p>
<h2>Store</h2>
<pre>curl -X POST --data-binary @file.txt -H "Content-Type: text/plain" /post
{"key":"aZ3bQ9x"}</pre>
<h2>Retrieve</h2>
<pre>curl /aZ3bQ9x</pre>
<p>Content expires after 24 hours by default. Payloads are stored
compressed and served gzipped to clients that accept it.</p>
</body>
</html>
`

// Index serves the static index page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexPage)) //nolint:errcheck
}
