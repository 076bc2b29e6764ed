package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, in *model.ContactInquiry) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	args := m.Called(ctx, id)
	in, _ := args.Get(0).(*model.ContactInquiry)
	return in, args.Error(1)
}

func (m *mockRepo) FindAll(ctx context.Context, f *dto.InquiryFilters) ([]model.ContactInquiry, int, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]model.ContactInquiry)
	return out, args.Int(1), args.Error(2)
}

func (m *mockRepo) Update(ctx context.Context, in *model.ContactInquiry) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Statistics(ctx context.Context, since time.Time) (*model.InquiryStatistics, error) {
	args := m.Called(ctx, since)
	s, _ := args.Get(0).(*model.InquiryStatistics)
	return s, args.Error(1)
}

type recordingNotifier struct {
	acks   []string
	alerts []string
}

func (n *recordingNotifier) InquiryAcknowledgement(_ context.Context, in *model.ContactInquiry) error {
	n.acks = append(n.acks, in.Email)
	return nil
}

func (n *recordingNotifier) StaffInquiryAlert(_ context.Context, in *model.ContactInquiry) error {
	n.alerts = append(n.alerts, in.Subject)
	return errors.New("staff inbox full")
}

var fixedNow = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func newUseCase(repo *mockRepo, n Notifier) *inquiryUseCase {
	uc := NewInquiryUseCase(repo, n, logger.NewNop()).(*inquiryUseCase)
	uc.now = func() time.Time { return fixedNow }
	uc.async = func(f func()) { f() }
	return uc
}

func validInput() *dto.CreateInquiryInput {
	return &dto.CreateInquiryInput{
		Name:        " Marie Dupont ",
		Email:       "Marie@Example.fr",
		Phone:       " ",
		Subject:     "Commande urgente",
		Message:     "Bonjour, ma commande n'est pas arrivée.",
		InquiryType: model.InquiryTypeOrder,
		Consent:     true,
		IPAddress:   "203.0.113.7",
		UserAgent:   "Mozilla/5.0",
	}
}

func TestSubmitNewInquiry(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.ContactInquiry")).Return(nil).Once()
	notifier := &recordingNotifier{}

	in, err := newUseCase(repo, notifier).Submit(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "Marie Dupont", in.Name)
	assert.Equal(t, "marie@example.fr", in.Email)
	assert.Nil(t, in.Phone)
	assert.Equal(t, "203.0.113.7", *in.IPAddress)
	assert.Equal(t, "fr", in.Locale)
	assert.Equal(t, model.InquiryStatusNew, in.Status)
	assert.Equal(t, model.PriorityUrgent, in.Priority)
	require.Len(t, in.ProcessingLog, 1)
	assert.Equal(t, "created", in.ProcessingLog[0].Action)

	assert.Equal(t, []string{"marie@example.fr"}, notifier.acks)
	assert.Equal(t, []string{"Commande urgente"}, notifier.alerts)
}

func TestSubmitSpamIsSilent(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	notifier := &recordingNotifier{}

	input := validInput()
	input.Website = "http://bot.example"
	in, err := newUseCase(repo, notifier).Submit(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, model.InquiryStatusSpam, in.Status)
	assert.Equal(t, model.PriorityLow, in.Priority)
	assert.Equal(t, 100, in.SpamScore)
	assert.Contains(t, in.ProcessingLog[0].Note, "spam score 100")
	assert.Empty(t, notifier.acks)
	assert.Empty(t, notifier.alerts)
}

func TestSubmitDefaultsType(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	input := validInput()
	input.InquiryType = ""
	input.Subject = "Question"
	input.Locale = "en-GB"
	in, err := newUseCase(repo, nil).Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, model.InquiryTypeGeneral, in.InquiryType)
	assert.Equal(t, model.PriorityNormal, in.Priority)
	assert.Equal(t, "en", in.Locale)
}

func stored(status string) *model.ContactInquiry {
	return &model.ContactInquiry{
		BaseModel:     model.BaseModel{ID: uuid.NewString()},
		Name:          "Marie",
		Email:         "marie@example.fr",
		Status:        status,
		Priority:      model.PriorityNormal,
		ProcessingLog: model.ProcessingLog{{Action: "created", Actor: "system"}},
	}
}

func strPtr(s string) *string { return &s }

func TestUpdateInquiryLogsEachChange(t *testing.T) {
	repo := &mockRepo{}
	in := stored(model.InquiryStatusNew)
	repo.On("FindByID", mock.Anything, in.ID).Return(in, nil)
	repo.On("Update", mock.Anything, in).Return(nil).Once()

	out, err := newUseCase(repo, nil).UpdateInquiry(context.Background(), &dto.UpdateInquiryInput{
		ID:         in.ID,
		Actor:      "admin-1",
		Status:     strPtr(model.InquiryStatusResolved),
		Priority:   strPtr(model.PriorityHigh),
		AssignedTo: strPtr("sophie"),
		Note:       "called back",
	})
	require.NoError(t, err)

	assert.Equal(t, model.InquiryStatusResolved, out.Status)
	require.NotNil(t, out.ResolvedAt)
	assert.Equal(t, fixedNow, *out.ResolvedAt)
	actions := []string{}
	for _, e := range out.ProcessingLog {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"created", "status_changed", "priority_changed", "assigned", "comment"}, actions)
	assert.Equal(t, "admin-1", out.ProcessingLog[1].Actor)
	assert.Equal(t, "new -> resolved", out.ProcessingLog[1].Note)
}

func TestUpdateInquiryRejectsTransition(t *testing.T) {
	repo := &mockRepo{}
	in := stored(model.InquiryStatusClosed)
	repo.On("FindByID", mock.Anything, in.ID).Return(in, nil)

	_, err := newUseCase(repo, nil).UpdateInquiry(context.Background(), &dto.UpdateInquiryInput{
		ID: in.ID, Status: strPtr(model.InquiryStatusResolved),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidStatusChange)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateInquiryNothingToDo(t *testing.T) {
	_, err := newUseCase(&mockRepo{}, nil).UpdateInquiry(context.Background(), &dto.UpdateInquiryInput{ID: uuid.NewString()})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestAnonymize(t *testing.T) {
	repo := &mockRepo{}
	in := stored(model.InquiryStatusResolved)
	in.ID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	in.Phone = strPtr("0600000000")
	in.IPAddress = strPtr("203.0.113.7")
	in.Message = "Mon adresse est 1 rue du Vin"
	repo.On("FindByID", mock.Anything, in.ID).Return(in, nil)
	repo.On("Update", mock.Anything, in).Return(nil).Once()

	uc := newUseCase(repo, nil)
	out, err := uc.Anonymize(context.Background(), in.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "Anonymized", out.Name)
	assert.Equal(t, "anonymized-3fa85f64@invalid", out.Email)
	assert.Nil(t, out.Phone)
	assert.Nil(t, out.IPAddress)
	assert.Equal(t, "[redacted]", out.Message)
	require.NotNil(t, out.AnonymizedAt)
	assert.Equal(t, "anonymized", out.ProcessingLog[len(out.ProcessingLog)-1].Action)

	_, err = uc.Anonymize(context.Background(), in.ID, "admin-1")
	assert.ErrorIs(t, err, apperror.ErrAlreadyAnonymized)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestDeleteInquiry(t *testing.T) {
	repo := &mockRepo{}
	id := uuid.NewString()
	repo.On("Delete", mock.Anything, id).Return(false, nil).Once()

	uc := newUseCase(repo, nil)
	assert.ErrorIs(t, uc.DeleteInquiry(context.Background(), id), apperror.ErrInquiryNotFound)
	assert.ErrorIs(t, uc.DeleteInquiry(context.Background(), "nope"), apperror.ErrInquiryNotFound)
}

func TestStatisticsWindow(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Statistics", mock.Anything, fixedNow.Add(-30*24*time.Hour)).
		Return(&model.InquiryStatistics{Total: 4, SpamCount: 1}, nil).Once()

	stats, err := newUseCase(repo, nil).Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	repo.AssertExpectations(t)
}
