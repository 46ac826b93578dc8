package bancheck

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"text/template"
	"time"

	"github.com/gorilla/websocket"
)

// Global variables for web server management.
var (
	upgrader  = websocket.Upgrader{}           // WebSocket connection upgrader
	clients   = make(map[*websocket.Conn]bool) // Connected WebSocket clients
	broadcast = make(chan []byte)              // Channel for broadcasting messages
	wsm       sync.Mutex                       // Mutex for client map access
)

// Payload represents the structure of WebSocket messages.
type Payload struct {
	Kind string `json:"kind"` // Type of the message
	Body any    `json:"body"` // Content of the message
}

// indexHTML is the live progress page pushed to browsers.
const indexHTML = `<!DOCTYPE html>
<html>
<head><title>bancheck</title></head>
<body>
<h1>bancheck</h1>
<pre id="stat"></pre>
<pre id="tasks"></pre>
<script>
const ws = new WebSocket("{{.}}");
ws.onmessage = (e) => {
  const p = JSON.parse(e.data);
  if (p.kind === "stat") {
    document.getElementById("stat").textContent = JSON.stringify(p.body, null, 2);
  } else if (p.kind === "task") {
    document.getElementById("tasks").textContent = JSON.stringify(p.body, null, 2);
  }
};
</script>
</body>
</html>`

// ServeWeb starts the live progress server and the periodic stat
// broadcaster. It returns immediately.
// Parameters:
//   - port: Port for the web interface
func (e *Engine) ServeWeb(port int) {
	go listenAndServe(port)
	go e.sendStat()
}

// sendStat periodically broadcasts statistics to connected clients.
func (e *Engine) sendStat() {
	for {
		e.stat.m.RLock()
		p, _ := json.Marshal(Payload{"stat", e.stat})
		e.stat.m.RUnlock()
		broadcast <- p

		time.Sleep(3 * time.Second)
	}
}

// BroadcastTask pushes a task snapshot to connected clients. Callers
// typically invoke it from their polling loop.
// Parameters:
//   - record: Task snapshot to publish
func BroadcastTask(record *TaskRecord) {
	p, _ := json.Marshal(Payload{"task", record})
	broadcast <- p
}

// listenAndServe starts the HTTP server on the specified port
// Parameters:
//   - port: Port number to listen on
func listenAndServe(port int) {
	http.HandleFunc("/", serveIndex)
	http.HandleFunc("/ws", wsHandler)

	go handleMessages()

	log.Println("Server started on :", port)
	if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

// wsHandler handles incoming WebSocket connection requests
// Parameters:
//   - w: HTTP response writer
//   - r: HTTP request
func wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}

	wsm.Lock()
	clients[conn] = true
	wsm.Unlock()
}

// handleMessages processes incoming messages from the broadcast channel.
func handleMessages() {
	for {
		msg := <-broadcast

		wsm.Lock()
		for c := range clients {
			err := c.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				c.Close()
				delete(clients, c)
			}
		}
		wsm.Unlock()
	}
}

// serveIndex serves the main HTML page with the websocket URL injected.
// Parameters:
//   - w: HTTP response writer
//   - r: HTTP request
func serveIndex(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("index").Parse(indexHTML)
	if err != nil {
		panic(err)
	}

	if err = t.Execute(w, "ws://"+r.Host+"/ws"); err != nil {
		panic(err)
	}
}
