package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/jobs"
)

const (
	channelRealtime         = "realtime"
	channelStatusNotice     = "status_notice"
	channelAssignmentNotice = "assignment_notice"
)

// Notifier delivers templated notices.
type Notifier interface {
	Send(ctx context.Context, address string, kind models.NotificationTemplate, data map[string]any) error
}

// RealtimePublisher fans a message out to the subscribers of a topic.
type RealtimePublisher interface {
	Publish(ctx context.Context, topic string, msg models.RealtimeMessage) error
}

type contactLookup interface {
	Resolve(ctx context.Context, userID string) (models.Contact, error)
}

// DispatcherConfig sizes the worker pool and shapes outbound payloads.
type DispatcherConfig struct {
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	TopicPrefix string
	PublicURL   string
}

type sideEffect struct {
	Event models.ComplaintEvent
}

// Dispatcher delivers notifications and real-time updates for committed mutations on
// its own worker pool. Delivery failures are logged and counted, never returned to callers.
type Dispatcher struct {
	queue     *jobs.Queue[sideEffect]
	publisher RealtimePublisher
	notifier  Notifier
	contacts  contactLookup
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       DispatcherConfig
	now       func() time.Time
}

// NewDispatcher builds a dispatcher. notifier may be nil to disable notices.
func NewDispatcher(cfg DispatcherConfig, publisher RealtimePublisher, notifier Notifier, contacts contactLookup, metrics *MetricsService, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := &Dispatcher{
		publisher: publisher,
		notifier:  notifier,
		contacts:  contacts,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	d.queue = jobs.NewQueue("side-effects", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	return d
}

// Start launches the workers. ctx bounds delivery, not individual requests.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains queued side effects and stops the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch queues every side effect the event calls for without blocking.
func (d *Dispatcher) Dispatch(event models.ComplaintEvent) {
	if event.Complaint == nil || len(event.Kinds) == 0 {
		return
	}
	for _, channel := range d.channelsFor(event) {
		job := jobs.Job[sideEffect]{
			ID:      fmt.Sprintf("%s:%d:%s", event.Complaint.ID, event.Complaint.Version, channel),
			Type:    channel,
			Payload: sideEffect{Event: event},
		}
		if err := d.queue.TryEnqueue(job); err != nil {
			d.metrics.RecordDispatchDropped()
			d.logger.Warn("side effect dropped",
				zap.String("complaint_id", event.Complaint.ID),
				zap.String("channel", channel),
				zap.Error(err),
			)
		}
	}
	d.metrics.SetDispatchQueued(d.queue.Len())
}

func (d *Dispatcher) channelsFor(event models.ComplaintEvent) []string {
	channels := []string{}
	if d.publisher != nil {
		channels = append(channels, channelRealtime)
	}
	if d.notifier == nil {
		return channels
	}
	if event.Has(models.EventStatusChanged) {
		channels = append(channels, channelStatusNotice)
	}
	if event.Has(models.EventAssigned) && event.Complaint.AssigneeID != nil {
		channels = append(channels, channelAssignmentNotice)
	}
	return channels
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job[sideEffect]) error {
	effect := job.Payload
	var err error
	switch job.Type {
	case channelRealtime:
		err = d.publish(ctx, effect.Event)
	case channelStatusNotice:
		err = d.notifyStatus(ctx, effect.Event)
	case channelAssignmentNotice:
		err = d.notifyAssignee(ctx, effect.Event)
	default:
		err = fmt.Errorf("unknown side effect channel %q", job.Type)
	}

	d.metrics.RecordDispatch(job.Type, err)
	if err != nil {
		d.logger.Warn("side effect delivery failed",
			zap.String("complaint_id", effect.Event.Complaint.ID),
			zap.Int64("version", effect.Event.Complaint.Version),
			zap.String("channel", job.Type),
			zap.Int("attempt", job.Attempt+1),
			zap.Error(err),
		)
	}
	return err
}

func (d *Dispatcher) publish(ctx context.Context, event models.ComplaintEvent) error {
	msg := models.RealtimeMessage{
		Type:      event.Kinds[0],
		Kinds:     event.Kinds,
		Version:   event.Complaint.Version,
		Complaint: event.Complaint,
		Changes:   event.Changes,
		SentAt:    d.now(),
	}
	return d.publisher.Publish(ctx, models.ComplaintTopic(d.cfg.TopicPrefix, event.Complaint.ID), msg)
}

func (d *Dispatcher) notifyStatus(ctx context.Context, event models.ComplaintEvent) error {
	change, ok := event.Change(models.FieldStatus)
	if !ok {
		return nil
	}
	complaint := event.Complaint
	contact, err := d.contacts.Resolve(ctx, complaint.SubmitterID)
	if err != nil {
		return fmt.Errorf("resolve submitter contact: %w", err)
	}
	if contact.Address == "" {
		d.logger.Debug("submitter not contactable", zap.String("complaint_id", complaint.ID))
		return nil
	}
	return d.notifier.Send(ctx, contact.Address, models.TemplateStatusUpdate, map[string]any{
		"name":        contact.FullName,
		"complaintId": complaint.ID,
		"title":       complaint.Title,
		"oldStatus":   change.From,
		"newStatus":   change.To,
		"link":        d.link(complaint.ID),
	})
}

func (d *Dispatcher) notifyAssignee(ctx context.Context, event models.ComplaintEvent) error {
	complaint := event.Complaint
	contact, err := d.contacts.Resolve(ctx, complaint.Assignee())
	if err != nil {
		return fmt.Errorf("resolve assignee contact: %w", err)
	}
	if contact.Address == "" {
		d.logger.Debug("assignee not contactable", zap.String("complaint_id", complaint.ID))
		return nil
	}
	data := map[string]any{
		"name":        contact.FullName,
		"complaintId": complaint.ID,
		"title":       complaint.Title,
		"description": complaint.Description,
		"dueDate":     "",
		"link":        d.link(complaint.ID),
	}
	if event.Assignment != nil && event.Assignment.DueDate != nil {
		data["dueDate"] = event.Assignment.DueDate.Format(time.RFC1123)
	}
	return d.notifier.Send(ctx, contact.Address, models.TemplateAssignmentNotice, data)
}

func (d *Dispatcher) link(complaintID string) string {
	return d.cfg.PublicURL + "/complaints/" + complaintID
}
