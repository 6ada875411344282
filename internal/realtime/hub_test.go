package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

type gaugeStub struct{ value int }

func (g *gaugeStub) AddLiveSubscribers(delta int) { g.value += delta }

var (
	adminViewer = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	submitter   = models.Actor{ID: "res-1", Role: models.RoleResident}
	assignee    = models.Actor{ID: "staff-x", Role: models.RoleStaff}
)

func message(version int64, notes ...models.Note) models.RealtimeMessage {
	return messageAssignedTo(version, assignee.ID, notes...)
}

func messageAssignedTo(version int64, assigneeID string, notes ...models.Note) models.RealtimeMessage {
	return models.RealtimeMessage{
		Type:    models.EventComplaintUpdated,
		Version: version,
		Complaint: &models.Complaint{
			ID:          "c-1",
			SubmitterID: submitter.ID,
			AssigneeID:  &assigneeID,
			Version:     version,
			Notes:       notes,
		},
	}
}

func drain(sub *Subscription) []models.RealtimeMessage {
	var out []models.RealtimeMessage
	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubDeliversInVersionOrder(t *testing.T) {
	hub := NewHub(8, nil, nil)
	sub := hub.Subscribe("complaints:c-1", adminViewer, 0)
	ctx := context.Background()

	require.NoError(t, hub.Publish(ctx, "complaints:c-1", message(1)))
	require.NoError(t, hub.Publish(ctx, "complaints:c-1", message(3)))
	require.NoError(t, hub.Publish(ctx, "complaints:c-1", message(2)))
	require.NoError(t, hub.Publish(ctx, "complaints:c-1", message(3)))
	require.NoError(t, hub.Publish(ctx, "complaints:other", message(9)))

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Version)
	assert.Equal(t, int64(3), got[1].Version)
}

func TestHubSkipsVersionsBeforeSubscription(t *testing.T) {
	hub := NewHub(8, nil, nil)
	sub := hub.Subscribe("t", adminViewer, 4)

	require.NoError(t, hub.Publish(context.Background(), "t", message(4)))
	require.NoError(t, hub.Publish(context.Background(), "t", message(5)))

	got := drain(sub)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].Version)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(1, nil, nil)
	slow := hub.Subscribe("t", adminViewer, 0)
	ctx := context.Background()

	require.NoError(t, hub.Publish(ctx, "t", message(1)))
	require.NoError(t, hub.Publish(ctx, "t", message(2)))

	got := drain(slow)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Version)
}

func TestHubFiltersInternalNotesForResidents(t *testing.T) {
	hub := NewHub(4, nil, nil)
	residentSub := hub.Subscribe("t", submitter, 0)
	staffSub := hub.Subscribe("t", assignee, 0)

	internal := models.Note{ID: "n-1", Content: "tenant has arrears", Internal: true}
	msg := message(2, internal)
	msg.Type = models.EventNoteAdded
	msg.Changes = []models.FieldChange{{Field: models.FieldNotes, To: internal}}
	require.NoError(t, hub.Publish(context.Background(), "t", msg))

	forResident := drain(residentSub)
	require.Len(t, forResident, 1)
	assert.Empty(t, forResident[0].Complaint.Notes)
	assert.Empty(t, forResident[0].Changes)

	forStaff := drain(staffSub)
	require.Len(t, forStaff, 1)
	assert.Len(t, forStaff[0].Complaint.Notes, 1)
	assert.Len(t, forStaff[0].Changes, 1)
}

func TestHubUnsubscribesStaffAfterReassignment(t *testing.T) {
	gauge := &gaugeStub{}
	hub := NewHub(4, gauge, nil)
	staffSub := hub.Subscribe("t", assignee, 0)
	adminSub := hub.Subscribe("t", adminViewer, 0)
	ctx := context.Background()

	require.NoError(t, hub.Publish(ctx, "t", message(4)))
	secret := models.Note{ID: "n-1", Content: "secret", Internal: true}
	require.NoError(t, hub.Publish(ctx, "t", messageAssignedTo(5, "staff-y", secret)))
	require.NoError(t, hub.Publish(ctx, "t", messageAssignedTo(6, "staff-y")))

	forStaff := drain(staffSub)
	require.Len(t, forStaff, 1)
	assert.Equal(t, int64(4), forStaff[0].Version)
	_, open := <-staffSub.C()
	assert.False(t, open)

	assert.Len(t, drain(adminSub), 3)
	assert.Equal(t, 1, hub.Subscribers("t"))
	assert.Equal(t, 1, gauge.value)
	staffSub.Close()
	assert.Equal(t, 1, gauge.value)
}

func TestHubUnsubscribesSoleViewerWithoutAccess(t *testing.T) {
	hub := NewHub(4, nil, nil)
	outsider := hub.Subscribe("t", models.Actor{ID: "res-2", Role: models.RoleResident}, 0)

	require.NoError(t, hub.Publish(context.Background(), "t", message(1)))

	assert.Empty(t, drain(outsider))
	_, open := <-outsider.C()
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("t"))
}

func TestVisibleMessageHandlesDecodedNotes(t *testing.T) {
	msg := models.RealtimeMessage{
		Complaint: &models.Complaint{ID: "c-1"},
		Changes: []models.FieldChange{
			{Field: models.FieldNotes, To: map[string]interface{}{"content": "secret", "internal": true}},
			{Field: models.FieldNotes, To: map[string]interface{}{"content": "hello", "internal": false}},
		},
	}
	out := VisibleMessage(msg, models.RoleResident)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, "hello", out.Changes[0].To.(map[string]interface{})["content"])
}

func TestHubSubscriptionLifecycle(t *testing.T) {
	gauge := &gaugeStub{}
	hub := NewHub(4, gauge, nil)

	a := hub.Subscribe("t", adminViewer, 0)
	b := hub.Subscribe("t", adminViewer, 0)
	assert.Equal(t, 2, hub.Subscribers("t"))
	assert.Equal(t, 2, gauge.value)

	a.Close()
	a.Close()
	assert.Equal(t, 1, hub.Subscribers("t"))
	assert.Equal(t, 1, gauge.value)
	_, open := <-a.C()
	assert.False(t, open)

	hub.Close()
	assert.Equal(t, 0, gauge.value)
	_, open = <-b.C()
	assert.False(t, open)
	b.Close()

	late := hub.Subscribe("t", adminViewer, 0)
	_, open = <-late.C()
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("t"))
}

func TestHubRejectsCancelledContext(t *testing.T) {
	hub := NewHub(4, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, hub.Publish(ctx, "t", message(1)))
}
