package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

// Event names emitted by the server.
const (
	EventPageView        = "page_view"
	EventSessionLogged   = "session_logged"
	EventSessionDeleted  = "session_deleted"
	EventUsernameSet     = "username_set"
	EventGroupChanged    = "group_changed"
	EventMessagePosted   = "shoutbox_message_posted"
	EventMigrationRun    = "legacy_migration_completed"
	EventMigrationFailed = "legacy_migration_failed"
)

// Context carries the caller identity attached to every event.
// It is passed explicitly per call; there is no process-wide tracking state.
type Context struct {
	UserID   string
	Page     string
	ClientID string
}

// Event is the payload published to the message bus.
type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	UserID     string                 `json:"user_id,omitempty"`
	Page       string                 `json:"page,omitempty"`
	ClientID   string                 `json:"client_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Publisher is the subset of *kafka.Writer used by the tracker.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Tracker records analytics events. Failures are logged and never returned.
type Tracker struct {
	db      *gorm.DB
	pub     Publisher
	timeout time.Duration
}

// NewTracker builds a tracker that stores events in db and, when pub is non-nil, publishes them.
func NewTracker(db *gorm.DB, pub Publisher) *Tracker {
	return &Tracker{db: db, pub: pub, timeout: 2 * time.Second}
}

// NewKafkaWriter returns a writer for the analytics topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// FromConfig wires a tracker from configuration; Kafka stays off without brokers.
func FromConfig(db *gorm.DB, cfg config.AppConfig) *Tracker {
	var pub Publisher
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAnalyticsTopic != "" {
		pub = NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaAnalyticsTopic)
		utils.Sugar.Infof("analytics publishing to kafka topic=%s brokers=%v", cfg.KafkaAnalyticsTopic, cfg.KafkaBrokers)
	}
	return NewTracker(db, pub)
}

// Track records one event. A nil tracker is a no-op.
func (t *Tracker) Track(ctx context.Context, tc Context, name string, props map[string]interface{}) {
	if t == nil || name == "" {
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Name:       name,
		UserID:     tc.UserID,
		Page:       tc.Page,
		ClientID:   tc.ClientID,
		Properties: props,
		CreatedAt:  time.Now().UTC(),
	}

	if t.db != nil {
		t.store(ctx, ev)
	}
	if t.pub != nil {
		t.publish(ctx, ev)
	}
}

func (t *Tracker) store(ctx context.Context, ev Event) {
	row := models.AnalyticsEvent{
		ID:        ev.ID,
		UserID:    ev.UserID,
		Name:      ev.Name,
		Page:      ev.Page,
		ClientID:  ev.ClientID,
		CreatedAt: ev.CreatedAt,
	}
	if len(ev.Properties) > 0 {
		b, err := json.Marshal(ev.Properties)
		if err != nil {
			utils.Logger.Warn("analytics properties not serializable", zap.String("event", ev.Name), zap.Error(err))
		} else {
			row.Properties = datatypes.JSON(b)
		}
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		utils.Logger.Warn("analytics insert failed", zap.String("event", ev.Name), zap.Error(err))
	}
}

func (t *Tracker) publish(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		utils.Logger.Warn("analytics encode failed", zap.String("event", ev.Name), zap.Error(err))
		return
	}
	// detach from the request so a client disconnect does not drop the message
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()
	msg := kafka.Message{Key: []byte(ev.UserID), Value: b, Time: ev.CreatedAt}
	if err := t.pub.WriteMessages(pctx, msg); err != nil {
		utils.Logger.Warn("analytics publish failed", zap.String("event", ev.Name), zap.Error(err))
	}
}

// Close flushes and closes the publisher.
func (t *Tracker) Close() error {
	if t == nil || t.pub == nil {
		return nil
	}
	return t.pub.Close()
}
