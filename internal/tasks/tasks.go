package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/email"
	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
	"github.com/kaushalvasoya/homeco-real-estate/internal/storage"
)

const (
	// TypeContactNotify emails the admin about a new contact message.
	TypeContactNotify = "contact:notify"
	// TypeImageRelease retries deleting a remote image whose inline release failed.
	TypeImageRelease = "image:release"
)

// NewClient creates an asynq client sharing the Redis connection settings.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// ContactNotifyPayload carries the stored message to the notification task.
type ContactNotifyPayload struct {
	Message models.ContactMessage `json:"message"`
}

// NewContactNotifyTask builds the admin-notification task for a new message.
func NewContactNotifyTask(msg models.ContactMessage) (*asynq.Task, error) {
	payload, err := json.Marshal(ContactNotifyPayload{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact notify payload: %w", err)
	}
	return asynq.NewTask(TypeContactNotify, payload), nil
}

// ImageReleasePayload identifies the remote object to delete.
type ImageReleasePayload struct {
	Key string `json:"key"`
}

// NewImageReleaseTask builds a deferred image-release task. It runs on the
// low queue; the record deletion already succeeded and this is cleanup.
func NewImageReleaseTask(key string) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(ImageReleasePayload{Key: key})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal image release payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue("low"),
		asynq.MaxRetry(5),
		asynq.ProcessIn(time.Minute),
	}
	return asynq.NewTask(TypeImageRelease, payload), opts, nil
}

// TaskProcessor handles the processing of background tasks.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	storage     storage.ImageStorage
}

// NewTaskProcessor creates a TaskProcessor with its handler dependencies.
func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, store storage.ImageStorage) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		storage:     store,
	}
}

// SetupServer configures an asynq server and the mux with all task handlers
// registered. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"default": 5,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[task error] type=%s payload=%s err=%v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeContactNotify, processor.HandleContactNotifyTask)
	mux.HandleFunc(TypeImageRelease, processor.HandleImageReleaseTask)

	return srv, mux
}

// HandleContactNotifyTask emails the configured admin address about an
// inbound contact message. When no address is configured the task is
// dropped without retrying.
func (p *TaskProcessor) HandleContactNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload ContactNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal contact notify payload: %v: %w", err, asynq.SkipRetry)
	}

	if p.cfg.AdminNotifyEmail == "" {
		log.Printf("ADMIN_NOTIFY_EMAIL not set, skipping notification for contact message %s", payload.Message.ID)
		return nil
	}

	msg := payload.Message
	subject := fmt.Sprintf("New contact message from %s", msg.Name)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", p.cfg.AdminNotifyEmail))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", p.cfg.SmtpFromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(fmt.Sprintf("Name: %s\r\nEmail: %s\r\nReceived: %s\r\n\r\n%s\r\n",
		msg.Name, msg.Email, msg.CreatedAt.Format(time.RFC1123Z), msg.Message))

	return p.emailSender.Send(ctx, []string{p.cfg.AdminNotifyEmail}, subject, []byte(sb.String()))
}

// HandleImageReleaseTask retries deleting a remote image. Errors are
// returned so asynq applies its retry backoff.
func (p *TaskProcessor) HandleImageReleaseTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageReleasePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image release payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Key == "" {
		return fmt.Errorf("empty image key: %w", asynq.SkipRetry)
	}

	if err := p.storage.Release(ctx, payload.Key); err != nil {
		return fmt.Errorf("deferred release of image %s failed: %w", payload.Key, err)
	}
	log.Printf("Released image %s via deferred task", payload.Key)
	return nil
}
