// Package alert delivers operational alerts. Delivery is fire-and-forget: failures
// are logged and never reach the caller.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
)

// LogAlerter writes alerts to the structured log.
type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) Alert(ctx context.Context, alert application.Alert) {
	level := slog.LevelWarn
	if alert.Level == application.AlertCritical {
		level = slog.LevelError
	}

	attrs := make([]any, 0, 4+2*len(alert.Fields))
	attrs = append(attrs, "alert_event", alert.Event, "alert_level", string(alert.Level))
	for k, v := range alert.Fields {
		attrs = append(attrs, k, v)
	}
	a.logger.Log(ctx, level, alert.Message, attrs...)
}

// HookPayload is the JSON body posted to the alert webhook.
type HookPayload struct {
	Level     string         `json:"level"`
	Event     string         `json:"event"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// HookAlerter posts alerts to an HTTP endpoint in the background.
type HookAlerter struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewHookAlerter(url string, timeout time.Duration, logger *slog.Logger) *HookAlerter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HookAlerter{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (a *HookAlerter) Alert(ctx context.Context, alert application.Alert) {
	payload := HookPayload{
		Level:     string(alert.Level),
		Event:     alert.Event,
		Message:   alert.Message,
		Fields:    alert.Fields,
		Timestamp: time.Now().UTC(),
	}

	// Detach from the request so delivery outlives it.
	ctx = context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.post(ctx, payload); err != nil {
			a.logger.Warn("alert delivery failed", "alert_event", alert.Event, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (a *HookAlerter) Wait() {
	a.wg.Wait()
}

func (a *HookAlerter) post(ctx context.Context, payload HookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert hook returned status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans an alert out to several sinks.
type Multi []application.Alerter

func (m Multi) Alert(ctx context.Context, alert application.Alert) {
	for _, a := range m {
		a.Alert(ctx, alert)
	}
}

// Wait blocks until every sink that delivers in the background is done.
func (m Multi) Wait() {
	for _, a := range m {
		if w, ok := a.(interface{ Wait() }); ok {
			w.Wait()
		}
	}
}

// New builds the alerter for cfg: always the log, plus the webhook when one is configured.
func New(cfg config.AlertConfig, logger *slog.Logger) Multi {
	sinks := Multi{NewLogAlerter(logger)}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, NewHookAlerter(cfg.WebhookURL, cfg.Timeout, logger))
	}
	return sinks
}
