package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      []string
	subject string
	text    string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(to []string, subject, _, textBody string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, text: textBody})
	return nil
}

func TestConvertHTMLToText(t *testing.T) {
	got := convertHTMLToText("<html><body><h2>Title</h2><ul><li>one</li><li>two</li></ul><p>end</p></body></html>")
	assert.Equal(t, "Title\n- one\n- two\nend", got)
}

func TestBuildMessage_Multipart(t *testing.T) {
	msg := string(buildMessage("site@example.com", []string{"a@example.com", "b@example.com"}, "Digest", "<p>hi</p>", "hi"))
	assert.True(t, strings.HasPrefix(msg, "From: site@example.com\r\nTo: a@example.com, b@example.com\r\nSubject: Digest\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\nhi\r\n")
	assert.Contains(t, msg, "--"+mimeBoundary+"--")
}

func TestDigest_SendsOnlyProjectsWithNews(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedProject(t, store, 0)
	busy := seedProject(t, store, 0)

	boq := NewBOQService(store, nil)
	item, err := boq.Create(ctx, adminCaller(), cementInput(busy.ID))
	require.NoError(t, err)
	_, err = boq.UpdateQuantities(ctx, adminCaller(), item.ID, models.BOQQuantitiesInput{UsedQuantity: ptr(90.0)})
	require.NoError(t, err)

	users := NewUserService(store, nil, "secret", time.Hour)
	staff, err := users.create(ctx, models.RegisterInput{Name: "Site", Email: "site@example.com", Password: "secret1", Role: models.RoleSupervisor})
	require.NoError(t, err)
	require.NoError(t, store.AssignProject(ctx, staff.ID, busy.ID))
	viewer, err := users.create(ctx, models.RegisterInput{Name: "Owner", Email: "owner@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, store.AssignProject(ctx, viewer.ID, busy.ID))

	mailer := &recordingMailer{}
	svc := NewDigestService(store, mailer, []string{"Office@Example.com"}, quietLogger())
	sent, err := svc.SendAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, []string{"office@example.com", "site@example.com"}, mail.to)
	assert.Contains(t, mail.subject, busy.Name)
	assert.Contains(t, mail.text, "Cement")
	assert.Contains(t, mail.text, "10.00")
}

func TestDigest_BuildListsDelayedPhases(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	started := reportNow.AddDate(0, 0, -12)
	est := 7
	phase := &models.ConstructionPhase{
		ProjectID:         project.ID,
		Phase:             models.PhaseRaft,
		Status:            models.PhaseInProgress,
		StartDate:         &started,
		EstimatedDuration: &est,
		Progress:          60,
	}
	require.NoError(t, store.CreatePhase(ctx, phase))

	svc := NewDigestService(store, &recordingMailer{}, nil, quietLogger())
	svc.now = func() time.Time { return reportNow }
	d, err := svc.Build(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, d.Delayed, 1)
	assert.Equal(t, DelayedEntry{Label: "raft - Floor 0", DelayDays: 5, Progress: "60.00"}, d.Delayed[0])
	assert.False(t, d.Empty())
}
