package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/config"
	"gymdash/internal/logger"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSender_BuildsInput(t *testing.T) {
	fake := &fakeSES{}
	s := NewSESSenderWithClient(fake, "alerts@gym.test", logger.NewTest(t))

	res, err := s.Send(context.Background(), SendRequest{To: []string{"ops@gym.test"}, Subject: "Low stock", HTML: "<p>hi</p>", ReplyTo: "desk@gym.test"})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", res.MessageID)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "alerts@gym.test", aws.ToString(in.Source))
	assert.Equal(t, []string{"ops@gym.test"}, in.Destination.ToAddresses)
	assert.Equal(t, "Low stock", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(in.Message.Body.Html.Data))
	assert.Equal(t, []string{"desk@gym.test"}, in.ReplyToAddresses)
}

func TestSESSender_BatchStopsOnError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	s := NewSESSenderWithClient(fake, "a@gym.test", nil)
	res, err := s.SendBatch(context.Background(), []SendRequest{{To: []string{"x@y.z"}}, {To: []string{"q@y.z"}}})
	assert.Error(t, err)
	assert.Empty(t, res)
	assert.Len(t, fake.inputs, 1)
}

func TestNoopSender_Records(t *testing.T) {
	s := NewNoopSender(nil)
	results, err := s.SendBatch(context.Background(), []SendRequest{{Subject: "a"}, {Subject: "b"}})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "noop-2", results[1].MessageID)
	assert.Len(t, s.Sent(), 2)
}

func TestNewSender_Providers(t *testing.T) {
	ctx := context.Background()
	s, err := NewSender(ctx, config.EmailConfig{Provider: "noop"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &NoopSender{}, s)

	s, err = NewSender(ctx, config.EmailConfig{Provider: "resend", ResendKey: "re_x", From: "a@b.c"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ResendSender{}, s)

	_, err = NewSender(ctx, config.EmailConfig{Provider: "pigeon"}, nil)
	assert.Error(t, err)
}
