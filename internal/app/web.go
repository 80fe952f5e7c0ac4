package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gimbal_driver/internal/config"
	"github.com/relabs-tech/gimbal_driver/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// RunWeb serves the latest mount orientation: a JSON snapshot on
// /api/orientation and a live push stream on /ws.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu       sync.RWMutex
		lastQuat orientation.QuaternionStamped
		haveQuat bool
	)

	var (
		connsMu sync.Mutex
		conns   = map[*websocket.Conn]bool{}
	)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the global mount orientation; keep the latest value
	//    and fan each message out to the websocket clients.
	token := client.Subscribe(cfg.TopicMountGlobal, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var q orientation.QuaternionStamped
		if err := json.Unmarshal(msg.Payload(), &q); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastQuat = q
		haveQuat = true
		mu.Unlock()

		connsMu.Lock()
		for conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload()); err != nil {
				conn.Close()
				delete(conns, conn)
			}
		}
		connsMu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicMountGlobal)

	// 3) JSON API endpoint: latest orientation
	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveQuat {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastQuat); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) Websocket push of every orientation update
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		connsMu.Lock()
		conns[conn] = true
		connsMu.Unlock()

		// Drain (and ignore) client messages so pings are answered and a
		// closed peer is noticed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					connsMu.Lock()
					delete(conns, conn)
					connsMu.Unlock()
					conn.Close()
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
