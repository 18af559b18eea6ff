package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

type Response struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// SessionCounter reports the number of live websocket sessions.
type SessionCounter interface {
	Connected() int
}

// Handler reports the service's own view of its dependencies. The RabbitMQ
// connection is optional; pass nil when the event mirror is disabled.
func Handler(serviceName string, db *pgxpool.Pool, rmq *amqp091.Connection, sessions SessionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{
			Status:    "healthy",
			Service:   serviceName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]string),
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				resp.Status = "unhealthy"
				resp.Checks["database"] = "down"
			} else {
				resp.Checks["database"] = "up"
			}
		}

		if rmq != nil {
			if rmq.IsClosed() {
				resp.Status = "unhealthy"
				resp.Checks["rabbitmq"] = "down"
			} else {
				resp.Checks["rabbitmq"] = "up"
			}
		}

		if sessions != nil {
			resp.Checks["websocket_sessions"] = strconv.Itoa(sessions.Connected())
		}

		code := http.StatusOK
		if resp.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	}
}
