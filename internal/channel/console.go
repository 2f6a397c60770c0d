package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/YallaPapi/chatter/internal/bus"
	"github.com/YallaPapi/chatter/internal/config"
)

const consoleChannelName = "console"

// wsMessage is the frame exchanged with the browser console. Outbound
// frames may carry an image tag and an ended marker.
type wsMessage struct {
	Type     string `json:"type"`
	FanID    string `json:"fan_id,omitempty"`
	Content  string `json:"content,omitempty"`
	ImageTag string `json:"image_tag,omitempty"`
	Ended    bool   `json:"ended,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// ConsoleChannel serves a local web console for talking to the persona
// as a fake fan. Each websocket connection is its own fan unless the
// client names one.
type ConsoleChannel struct {
	BaseChannel
	host    string
	port    int
	server  *http.Server
	clients sync.Map
	nextID  atomic.Int64
}

func NewConsoleChannel(gwCfg config.GatewayConfig, b *bus.MessageBus) (*ConsoleChannel, error) {
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}
	host := gwCfg.Host
	if host == "" {
		host = config.DefaultHost
	}
	return &ConsoleChannel{
		BaseChannel: NewBaseChannel(consoleChannelName, b, nil),
		host:        host,
		port:        port,
	}, nil
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.handleIndex)
	mux.HandleFunc("/ws", c.handleWS)

	c.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.host, c.port),
		Handler: mux,
	}

	go func() {
		log.Printf("[console] listening on %s", c.server.Addr)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[console] server error: %v", err)
		}
	}()

	return nil
}

func (c *ConsoleChannel) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, consolePage)
}

func (c *ConsoleChannel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[console] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("console-%d", c.nextID.Add(1))
	c.clients.Store(clientID, &wsClient{conn: conn, id: clientID})
	log.Printf("[console] client connected: %s", clientID)

	defer func() {
		c.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[console] client disconnected: %s", clientID)
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		fanID := msg.FanID
		if fanID == "" {
			fanID = clientID
		}

		c.bus.Inbound <- bus.InboundMessage{
			Channel:   consoleChannelName,
			FanID:     fanID,
			ChatID:    clientID,
			Content:   msg.Content,
			Timestamp: time.Now(),
		}
	}
}

func (c *ConsoleChannel) Send(msg bus.OutboundMessage) error {
	data, err := json.Marshal(wsMessage{
		Type:     "message",
		Content:  msg.Content,
		ImageTag: msg.ImageTag,
		Ended:    msg.Ended,
	})
	if err != nil {
		return err
	}

	client, ok := c.clients.Load(msg.ChatID)
	if !ok {
		c.clients.Range(func(key, value any) bool {
			cl := value.(*wsClient)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = cl.conn.Write(ctx, websocket.MessageText, data)
			return true
		})
		return nil
	}

	cl := client.(*wsClient)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cl.conn.Write(ctx, websocket.MessageText, data)
}

func (c *ConsoleChannel) Stop() error {
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.server.Shutdown(ctx); err != nil {
			log.Printf("[console] shutdown error: %v", err)
		}
	}
	c.clients.Range(func(key, value any) bool {
		cl := value.(*wsClient)
		cl.conn.CloseNow()
		return true
	})
	log.Printf("[console] stopped")
	return nil
}

const consolePage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>chatter console</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2em auto; }
#log { border: 1px solid #ccc; height: 360px; overflow-y: auto; padding: 8px; }
.fan { color: #333; }
.model { color: #b0006e; }
.img { color: #888; font-style: italic; }
</style></head>
<body>
<h3>chatter console</h3>
<div id="log"></div>
<input id="msg" style="width:80%" placeholder="type as the fan..."><button onclick="send()">send</button>
<script>
var ws = new WebSocket("ws://" + location.host + "/ws");
var log = document.getElementById("log");
function add(cls, text) {
  var d = document.createElement("div");
  d.className = cls; d.textContent = text;
  log.appendChild(d); log.scrollTop = log.scrollHeight;
}
ws.onmessage = function(e) {
  var m = JSON.parse(e.data);
  if (m.content) add("model", m.content);
  if (m.image_tag) add("img", "[photo: " + m.image_tag + "]");
};
function send() {
  var el = document.getElementById("msg");
  if (!el.value) return;
  add("fan", el.value);
  ws.send(JSON.stringify({type: "message", content: el.value}));
  el.value = "";
}
document.getElementById("msg").addEventListener("keydown", function(e) {
  if (e.key === "Enter") send();
});
</script>
</body>
</html>`
