package web

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	ds "github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"grdiag/events"
	"grdiag/logger"
	"grdiag/sampler"
)

const tickPeriod = time.Second
const maxRecentAlerts = 10

// Server renders a minimal live status page: the latest reading per
// parameter and the most recent alerts, patched over SSE.
type Server struct {
	sampler *sampler.Sampler
	hub     *events.EventHub
	handler *http.ServeMux

	templates *template.Template

	mu     sync.Mutex
	alerts []string
}

func NewServer(s *sampler.Sampler, hub *events.EventHub) (*Server, error) {
	templates, err := template.New("").Parse(statusTemplates)
	if err != nil {
		return nil, err
	}

	server := &Server{
		sampler:   s,
		hub:       hub,
		templates: templates,
	}

	handler := http.NewServeMux()
	handler.HandleFunc("/", server.IndexHandler)
	handler.HandleFunc("/tick", server.TickHandler)
	server.handler = handler

	go server.collectAlerts()

	return server, nil
}

func (s *Server) Start(addr string) error {
	logger.Info("status page listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.handler)
}

// IndexHandler serves the page shell; the status fragment fills in on the
// first tick.
func (s *Server) IndexHandler(w http.ResponseWriter, _ *http.Request) {
	if err := s.templates.ExecuteTemplate(w, "index", s.statusData()); err != nil {
		logger.Error("couldn't execute index template", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) TickHandler(w http.ResponseWriter, r *http.Request) {
	sse := ds.NewSSE(w, r)

	ctx := r.Context()
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var writer strings.Builder
			if err := s.templates.ExecuteTemplate(&writer, "status", s.statusData()); err != nil {
				logger.Error("couldn't execute status template", zap.Error(err))
				return
			}
			if err := sse.PatchElements(writer.String()); err != nil {
				return
			}
		}
	}
}

// collectAlerts keeps the recent-alert list fed from the hub.
func (s *Server) collectAlerts() {
	_, ch, cancel := s.hub.Subscribe()
	defer cancel()
	for event := range ch {
		if event.Alert == "" {
			continue
		}
		s.mu.Lock()
		s.alerts = append(s.alerts, event.Alert)
		if len(s.alerts) > maxRecentAlerts {
			s.alerts = s.alerts[len(s.alerts)-maxRecentAlerts:]
		}
		s.mu.Unlock()
	}
}

type readingRow struct {
	Name  string
	Value string
}

type statusData struct {
	SampledAt string
	Readings  []readingRow
	Alerts    []string
}

func (s *Server) statusData() *statusData {
	data := &statusData{SampledAt: "never"}

	snapshot := s.sampler.Latest()
	for _, name := range s.sampler.Registry().Names() {
		value := "—"
		if snapshot != nil {
			if r := snapshot.Get(name); r.Valid {
				value = strconv.FormatFloat(r.Value, 'f', -1, 64)
			}
		}
		data.Readings = append(data.Readings, readingRow{Name: name, Value: value})
	}
	if snapshot != nil {
		data.SampledAt = snapshot.Timestamp.Format(sampler.TimeFormat)
	}

	s.mu.Lock()
	data.Alerts = append(data.Alerts, s.alerts...)
	s.mu.Unlock()

	return data
}

const statusTemplates = `
{{define "status"}}
<div id="status">
	<p>last sample: {{.SampledAt}}</p>
	<table>
		{{range .Readings}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
		{{end}}
	</table>
	<h2>Alerts</h2>
	{{if .Alerts}}<ul>{{range .Alerts}}<li>{{.}}</li>{{end}}</ul>{{else}}<p>none</p>{{end}}
</div>
{{end}}

{{define "index"}}
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>2GR diagnostics</title>
	<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
	<style>
		body { font-family: monospace; background: #111; color: #eee; margin: 2rem; }
		table { border-collapse: collapse; }
		td { border: 1px solid #444; padding: 0.25rem 0.75rem; }
		h1, h2 { color: #d44; }
	</style>
</head>
<body data-on-load="@get('/tick')">
	<h1>2GR-FE/FKS diagnostics</h1>
	{{template "status" .}}
</body>
</html>
{{end}}
`
