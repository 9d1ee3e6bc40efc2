package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/job"
	"reelsmith/internal/services"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface used by the orchestrator and CLI.
type Service interface {
	NotifyJobFinished(ctx context.Context, result job.Result) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: cfg.NotificationTimeout()},
		notifySuccess: cfg.Notifications.NotifySuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	notifySuccess bool
}

func (n *ntfyService) NotifyJobFinished(ctx context.Context, result job.Result) error {
	if result.Success {
		if !n.notifySuccess {
			return nil
		}
		return n.send(ctx, completedPayload(result))
	}
	return n.send(ctx, failedPayload(result))
}

func completedPayload(result job.Result) payload {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 Video ready: %s", result.JobID)
	if result.Duration > 0 {
		fmt.Fprintf(&b, " (%.1fs)", result.Duration)
	}
	if final := result.Artifacts[job.ArtifactFinal]; final != "" {
		fmt.Fprintf(&b, "\nFile: %s", final)
	}
	if fallbacks := formatFallbacks(result.Fallbacks); fallbacks != "" {
		fmt.Fprintf(&b, "\nSources: %s", fallbacks)
	}
	tags := []string{"reelsmith", "job", "completed"}
	if notes := len(result.Notes()); notes > 0 {
		fmt.Fprintf(&b, "\n%d note(s) recorded", notes)
		tags = append(tags, "degraded")
	}
	return payload{
		title:   "Reelsmith - Video Ready",
		message: b.String(),
		tags:    tags,
	}
}

func failedPayload(result job.Result) payload {
	note, ok := result.FatalError()
	if ok && note.Kind == services.KindStageAborted {
		return payload{
			title:    "Reelsmith - Job Cancelled",
			message:  fmt.Sprintf("Job %s was cancelled during %s", result.JobID, stageOr(note.Stage)),
			tags:     []string{"reelsmith", "job", "cancelled"},
			priority: "low",
		}
	}
	message := fmt.Sprintf("❌ Job %s failed", result.JobID)
	if ok {
		message = fmt.Sprintf("❌ Job %s failed in %s: %s", result.JobID, stageOr(note.Stage), strings.TrimSpace(note.Message))
	}
	return payload{
		title:    "Reelsmith - Job Failed",
		message:  message,
		tags:     []string{"reelsmith", "job", "failed"},
		priority: "high",
	}
}

func formatFallbacks(fallbacks map[string]string) string {
	if len(fallbacks) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fallbacks))
	for k := range fallbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fallbacks[k])
	}
	return strings.Join(parts, ", ")
}

func stageOr(stage string) string {
	if strings.TrimSpace(stage) == "" {
		return "an unknown stage"
	}
	return stage
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobFinished(context.Context, job.Result) error { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
