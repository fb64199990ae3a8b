package service

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/orderpulse/internal/insight/domain"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completionMock struct {
	mock.Mock
}

func (m *completionMock) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func TestGenerate(t *testing.T) {
	client := &completionMock{}
	client.On("Complete", mock.Anything, domain.CompletionRequest{System: "sys", User: "usr"}).
		Return(`{"insight":"Great first order.","followUpSubject":"Thanks!","followUpBody":"Hi there"}`, nil)

	g := New(Params{Log: zap.NewNop(), Client: client})
	got, err := g.Generate(context.Background(), prompt.Prompt{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, domain.Insight{Text: "Great first order.", FollowUpSubject: "Thanks!", FollowUpBody: "Hi there"}, got)
	client.AssertExpectations(t)
}

func TestGenerateWrapsProviderErrors(t *testing.T) {
	client := &completionMock{}
	client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("status 429"))

	g := New(Params{Client: client})
	_, err := g.Generate(context.Background(), prompt.Prompt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty", content: "  ", wantErr: domain.ErrEmptyResponse},
		{name: "not json", content: "Here is your insight!", wantErr: domain.ErrMalformedResponse},
		{name: "json array", content: `["insight"]`, wantErr: domain.ErrMalformedResponse},
		{name: "json null", content: `null`, wantErr: domain.ErrMalformedResponse},
		{name: "missing body", content: `{"insight":"a","followUpSubject":"b"}`, wantErr: domain.ErrIncompleteResponse},
		{name: "non string subject", content: `{"insight":"a","followUpSubject":3,"followUpBody":"c"}`, wantErr: domain.ErrIncompleteResponse},
		{name: "blank insight", content: `{"insight":"","followUpSubject":"b","followUpBody":"c"}`, wantErr: domain.ErrIncompleteResponse},
		{name: "valid", content: `{"insight":"a","followUpSubject":"b","followUpBody":"c","extra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.content)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrGenerationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", got.Text)
		})
	}
}
