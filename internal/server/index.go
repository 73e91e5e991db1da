package server

import (
	"bytes"
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sitemap Generator</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 960px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        label { display: block; margin-top: 0.5rem; }
        input[type=text], input[type=number] { width: 100%; padding: 0.4rem; }
        #log {
            background: #1e1e1e;
            color: #d4d4d4;
            font-family: monospace;
            font-size: 0.85rem;
            height: 240px;
            overflow-y: auto;
            padding: 0.5rem;
            white-space: pre-wrap;
        }
        table { width: 100%; border-collapse: collapse; }
        td, th { text-align: left; padding: 0.3rem; border-bottom: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Sitemap Generator</h1>
        <form id="generate">
            <label>Root URL <input type="text" name="root_url" placeholder="https://example.com" required></label>
            <label>Max URLs <input type="number" name="max_urls" value="{{.MaxURLs}}" min="1"></label>
            <label>Delay (seconds) <input type="number" name="delay" value="{{.Delay}}" min="0" step="0.1"></label>
            <label>Max workers <input type="number" name="max_workers" value="{{.MaxWorkers}}" min="1"></label>
            <label>User agent <input type="text" name="user_agent" value="{{.UserAgent}}"></label>
            <label><input type="checkbox" name="compress" {{if .Compress}}checked{{end}}> Compress (gzip)</label>
            <button type="submit">Generate</button>
        </form>
        <p id="status"></p>
    </div>

    <div class="card">
        <h2>Progress</h2>
        <div id="log"></div>
    </div>

    <div class="card">
        <h2>Generated sitemaps</h2>
        {{if .Sitemaps}}
        <table>
            <tr><th>File</th><th>URLs</th><th>Created</th></tr>
            {{range .Sitemaps}}
            <tr>
                <td><a href="{{.DownloadURL}}">{{.Filename}}</a></td>
                <td>{{if .URLCount}}{{.URLCount}}{{end}}</td>
                <td>{{.Created}}</td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <p>No sitemaps generated yet.</p>
        {{end}}
    </div>

    <script>
        const log = document.getElementById("log");
        new EventSource("/generate-log").onmessage = (e) => {
            log.textContent += JSON.parse(e.data).log + "\n";
            log.scrollTop = log.scrollHeight;
        };
        document.getElementById("generate").addEventListener("submit", async (e) => {
            e.preventDefault();
            const f = new FormData(e.target);
            const status = document.getElementById("status");
            status.textContent = "Generating...";
            const resp = await fetch("/generate", {
                method: "POST",
                headers: {"Content-Type": "application/json"},
                body: JSON.stringify({
                    root_url: f.get("root_url"),
                    max_urls: Number(f.get("max_urls")),
                    delay: Number(f.get("delay")),
                    max_workers: Number(f.get("max_workers")),
                    user_agent: f.get("user_agent"),
                    compress: f.get("compress") === "on",
                }),
            });
            const body = await resp.json();
            status.textContent = resp.ok
                ? body.message + ": " + body.filename + " (" + body.url_count + " URLs)"
                : "Error: " + body.error;
            if (resp.ok) location.reload();
        });
    </script>
</body>
</html>
`))

type indexData struct {
	MaxURLs    int
	Delay      float64
	MaxWorkers int
	UserAgent  string
	Compress   bool
	Sitemaps   []sitemapEntry
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.listSitemaps(r.Context())
	if err != nil {
		s.logger.Warn("failed to list sitemaps for index", "error", err)
	}

	data := indexData{
		MaxURLs:    s.cfg.Crawler.MaxURLs,
		Delay:      s.cfg.Crawler.Delay.Seconds(),
		MaxWorkers: s.cfg.Crawler.MaxWorkers,
		UserAgent:  s.cfg.Crawler.UserAgent,
		Compress:   s.cfg.Sitemap.Compress,
		Sitemaps:   entries,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render index", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
