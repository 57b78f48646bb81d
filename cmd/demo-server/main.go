package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := flag.Int("port", 8080, "Port to run the demo server on")
	host := flag.String("host", "localhost", "Host to bind the demo server to")
	flag.Parse()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", *host, *port),
		Handler: createHandler(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Demo server starting on http://%s:%d", *host, *port)
		log.Printf("Podcast feed available at: http://%s:%d/rss", *host, *port)
		log.Printf("Episode audio available at: http://%s:%d/episodes/[1-4].mp3", *host, *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down demo server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Demo server stopped")
}

// createHandler creates the HTTP handler for the demo server
func createHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", rssHandler)
	mux.HandleFunc("/episodes/", episodesHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			homeHandler(w, r)
		} else {
			http.NotFound(w, r)
		}
	})
	return mux
}

// homeHandler serves a simple home page explaining the demo server
func homeHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := strings.TrimSuffix(fmt.Sprintf("%s://%s", scheme, r.Host), "/")

	html := `<!DOCTYPE html>
<html>
<head>
    <title>Podcatch Demo Server</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #6366f1; padding-bottom: 10px; margin-bottom: 20px; }
        .endpoint { background: #f3f4f6; padding: 10px; border-radius: 5px; margin: 10px 0; }
        .url { color: #4f46e5; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>🎙️ Podcatch Demo Server</h1>
        <p>This server provides a mock podcast feed and episode audio for demonstrating Podcatch.</p>
    </div>

    <h2>Available Endpoints</h2>
    <div class="endpoint">
        <strong>Podcast Feed:</strong> <a href="%[1]s/rss" class="url">%[1]s/rss</a>
        <p>Contains 4 sample episodes plus one item without audio.</p>
    </div>

    <div class="endpoint">
        <strong>Episode Audio:</strong> <a href="%[1]s/episodes/1.mp3" class="url">%[1]s/episodes/[1-4].mp3</a>
        <p>Generated audio payloads of a few hundred KiB each.</p>
    </div>

    <h2>Usage with Podcatch</h2>
    <p>Add this feed to ~/.config/podcatch/config.yaml:</p>
    <pre><code>feeds:
  demo:
    url: %[1]s/rss
    output: "~/Podcasts/demo"
</code></pre>

    <p>Then run 'podcatch run' to download every episode, oldest first.</p>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, html, baseURL)
}

// rssHandler returns the mock podcast feed. Items appear newest first,
// the way real podcast feeds order them.
func rssHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := strings.TrimSuffix(fmt.Sprintf("%s://%s", scheme, r.Host), "/")

	rssTemplate := `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
	<channel>
		<title>The Signal Path</title>
		<link>%[1]s/</link>
		<description>A show about audio engineering, recorded badly on purpose</description>
		<lastBuildDate>%[2]s</lastBuildDate>
		<atom:link href="%[1]s/rss" rel="self" type="application/rss+xml"/>
		<item>
			<title>Épisode 4: L'été en direct</title>
			<link>%[1]s/episodes/4</link>
			<pubDate>Mon, 25 Aug 2025 10:30:00 +0000</pubDate>
			<guid>signal-path-4</guid>
			<description>A live summer special, with accents in the title to exercise filename sanitization.</description>
			<enclosure url="%[1]s/episodes/4.mp3" length="1048576" type="audio/mpeg"/>
		</item>
		<item>
			<title>Show notes for the season</title>
			<link>%[1]s/episodes/notes</link>
			<pubDate>Sun, 24 Aug 2025 18:00:00 +0000</pubDate>
			<guid>signal-path-notes</guid>
			<description>A text-only item with no enclosure. Podcatch skips it.</description>
		</item>
		<item>
			<title>Episode 3: Compression &amp; Loudness</title>
			<link>%[1]s/episodes/3</link>
			<pubDate>Sat, 23 Aug 2025 09:45:00 +0000</pubDate>
			<guid>signal-path-3</guid>
			<description>Why everything on the radio sounds the same, and how to stop caring.</description>
			<enclosure url="%[1]s/episodes/3.mp3" length="786432" type="audio/mpeg"/>
		</item>
		<item>
			<title>Episode 2: The Art of the Interview</title>
			<link>%[1]s/episodes/2</link>
			<pubDate>Fri, 22 Aug 2025 14:15:00 +0000</pubDate>
			<guid>signal-path-2</guid>
			<description>Getting strangers to say interesting things into a microphone.</description>
			<enclosure url="%[1]s/episodes/2.mp3" length="524288" type="audio/mpeg"/>
		</item>
		<item>
			<title>Episode 1: Hello, Podcasting</title>
			<link>%[1]s/episodes/1</link>
			<pubDate>Thu, 21 Aug 2025 08:00:00 +0000</pubDate>
			<guid>signal-path-1</guid>
			<description>What this show is, and why you should not start a podcast.</description>
			<enclosure url="%[1]s/episodes/1.mp3" length="262144" type="audio/mpeg"/>
		</item>
	</channel>
</rss>`

	currentTime := time.Now().Format(time.RFC1123Z)
	content := fmt.Sprintf(rssTemplate, baseURL, currentTime)

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(content))
}

// episodesHandler serves generated episode audio
func episodesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/episodes/")
	name := strings.TrimSuffix(path, ".mp3")
	if name == "" {
		http.Error(w, "Episode number required", http.StatusBadRequest)
		return
	}

	episodeID, err := strconv.Atoi(name)
	if err != nil || episodeID < 1 || episodeID > 4 {
		http.Error(w, "Invalid episode (use 1-4)", http.StatusBadRequest)
		return
	}

	size := episodeID * 256 * 1024
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(size))

	// 4 KiB of MPEG frame-sync bytes, repeated to the advertised length
	chunk := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 1024)
	written := 0
	for written < size {
		n := len(chunk)
		if size-written < n {
			n = size - written
		}
		if _, err := w.Write(chunk[:n]); err != nil {
			return
		}
		written += n
	}
}
