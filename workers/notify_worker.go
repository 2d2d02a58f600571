// workers/notify_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"speed-networking-system/models"
)

// NotifyEvent is the payload posted to the external notification gateway,
// which fans it out over SMS/email. This service only produces events.
type NotifyEvent struct {
	Type             string    `json:"type"` // attendance_confirmed, match_assigned
	ParticipantID    string    `json:"participant_id"`
	ParticipantName  string    `json:"participant_name"`
	SessionID        string    `json:"session_id"`
	RoundID          string    `json:"round_id"`
	RoundStart       time.Time `json:"round_start"`
	MeetingPointName string    `json:"meeting_point_name,omitempty"`
	Partners         []string  `json:"partners,omitempty"`
	SentAt           time.Time `json:"sent_at"`
}

// NotifyWorker ships events to the notification gateway in the background.
// Enqueueing never blocks: when the queue is full the event is dropped and
// logged, so a slow or dead gateway can never stall a status transition.
type NotifyWorker struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	queue        chan NotifyEvent
}

func NewNotifyWorker(gatewayBaseURL, serviceToken string) *NotifyWorker {
	return &NotifyWorker{
		baseURL:      gatewayBaseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		queue: make(chan NotifyEvent, 256),
	}
}

func (w *NotifyWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Notification Worker (engine → notification gateway)…")
	go w.run(ctx)
}

func (w *NotifyWorker) run(ctx context.Context) {
	for {
		select {
		case event := <-w.queue:
			if err := w.send(ctx, event); err != nil {
				log.Printf("⚠️ [NOTIFY] delivery failed (%s for %s): %v", event.Type, event.ParticipantID, err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Notification Worker stopped")
			return
		}
	}
}

// AttendanceConfirmed implements the engine's Notifier contract.
func (w *NotifyWorker) AttendanceConfirmed(reg models.Registration, round models.Round) {
	w.enqueue(NotifyEvent{
		Type:            "attendance_confirmed",
		ParticipantID:   reg.ParticipantID,
		ParticipantName: reg.ParticipantName,
		SessionID:       reg.SessionID,
		RoundID:         reg.RoundID,
		RoundStart:      round.StartTime,
		SentAt:          time.Now(),
	})
}

// MatchAssigned implements the engine's Notifier contract.
func (w *NotifyWorker) MatchAssigned(reg models.Registration, round models.Round) {
	var partners []string
	if reg.PartnersJSON != "" {
		_ = json.Unmarshal([]byte(reg.PartnersJSON), &partners)
	}
	w.enqueue(NotifyEvent{
		Type:             "match_assigned",
		ParticipantID:    reg.ParticipantID,
		ParticipantName:  reg.ParticipantName,
		SessionID:        reg.SessionID,
		RoundID:          reg.RoundID,
		RoundStart:       round.StartTime,
		MeetingPointName: reg.MeetingPointName,
		Partners:         partners,
		SentAt:           time.Now(),
	})
}

func (w *NotifyWorker) enqueue(event NotifyEvent) {
	select {
	case w.queue <- event:
	default:
		log.Printf("⚠️ [NOTIFY] queue full, dropping %s for %s", event.Type, event.ParticipantID)
	}
}

func (w *NotifyWorker) send(ctx context.Context, event NotifyEvent) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid notification gateway URL '%s': %w", w.baseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/notifications").String()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
