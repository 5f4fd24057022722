package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/statusdash/statusctl/internal/schema"
)

// StatsData aggregates task counts for the stats broadcast.
type StatsData struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	InProgress int            `json:"in_progress"`
	Done       int            `json:"done"`
}

func computeStats(doc *schema.Document) StatsData {
	stats := StatsData{
		ByStatus: make(map[string]int),
	}
	for _, task := range doc.Tasks {
		stats.Total++
		stats.ByStatus[task.Status]++
		switch task.Status {
		case schema.StatusInProgress:
			stats.InProgress++
		case schema.StatusDone:
			stats.Done++
		}
	}
	return stats
}

// handleHealth reports server health and client count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	s.currentMu.RLock()
	revision := s.currentRev
	s.currentMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"clients":  clientCount,
		"revision": revision,
	})
}

// handleStatusJSON serves the last fetched document.
func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	s.currentMu.RLock()
	doc := s.current
	s.currentMu.RUnlock()

	if doc == nil {
		http.Error(w, `{"error":"document not fetched yet"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// handleRoot serves the viewer page: a static shell that renders the
// document pushed over the WebSocket.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, viewerHTML, r.Host)
}

const viewerHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Status Dashboard</title>
    <style>
        body { font-family: sans-serif; margin: 2em; background: #111; color: #eee; }
        h1 { font-size: 1.2em; }
        table { border-collapse: collapse; margin-bottom: 2em; }
        td, th { padding: 0.3em 0.8em; border-bottom: 1px solid #333; text-align: left; }
        .done { color: #6c6; }
        .in_progress { color: #fc6; }
        .blocked { color: #e66; }
        .waiting { color: #999; }
        #meta { color: #777; font-size: 0.8em; }
    </style>
</head>
<body>
    <h1>Status Dashboard</h1>
    <div id="meta">connecting to ws://%s/ws ...</div>
    <table id="tasks"><thead><tr><th>ID</th><th>Title</th><th>Status</th><th>Category</th><th>Progress</th><th>Note</th></tr></thead><tbody></tbody></table>
    <table id="schedule"><thead><tr><th>Time</th><th>Label</th></tr></thead><tbody></tbody></table>
    <script>
        const ws = new WebSocket("ws://" + location.host + "/ws");
        ws.onmessage = (ev) => {
            const msg = JSON.parse(ev.data);
            if (msg.type !== "document") return;
            const doc = msg.data;
            document.getElementById("meta").textContent =
                "revision " + msg.revision + " - updated " + doc.meta.updated_at + " by " + doc.meta.updated_by;
            const tasks = document.querySelector("#tasks tbody");
            tasks.innerHTML = "";
            for (const t of doc.tasks) {
                const row = tasks.insertRow();
                row.className = t.status;
                for (const v of [t.id, t.title, t.status, t.category, t.progress + "%%", t.note]) {
                    row.insertCell().textContent = v;
                }
            }
            const sched = document.querySelector("#schedule tbody");
            sched.innerHTML = "";
            for (const e of doc.schedule) {
                const row = sched.insertRow();
                row.insertCell().textContent = e.time;
                row.insertCell().textContent = e.label;
            }
        };
    </script>
</body>
</html>`
