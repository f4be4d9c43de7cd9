package sms

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	last *sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.last = in
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSNSSender_Publish(t *testing.T) {
	fake := &fakeSNS{}
	s := NewSNSSenderWithClient(fake, "GYMDASH", nil)

	res, err := s.Send(context.Background(), Message{PhoneNumber: "+6421000000", Body: "Whey low"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", res.MessageID)
	assert.Equal(t, "+6421000000", aws.ToString(fake.last.PhoneNumber))
	assert.Equal(t, "GYMDASH", aws.ToString(fake.last.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	_, err = s.Send(context.Background(), Message{Body: "no number"})
	assert.Error(t, err)
}

func TestNoopSender(t *testing.T) {
	s := NewNoopSender(nil)
	_, err := s.Send(context.Background(), Message{PhoneNumber: "+1", Body: "x"})
	require.NoError(t, err)
	assert.Len(t, s.Sent(), 1)
}
