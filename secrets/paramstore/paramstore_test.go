package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out   *ssm.GetParameterOutput
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	return f.out, f.err
}

func TestGetParameter(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  aws.String("/rentscreen/llm_api_key"),
		Value: aws.String("sk-test"),
	}}}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), "/rentscreen/llm_api_key")
	require.NoError(t, err)
	require.Equal(t, "sk-test", v)
}

func TestGetParameterCachesValue(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Value: aws.String("sk-test"),
	}}}
	c, err := New(api)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.GetParameter(context.Background(), "p")
		require.NoError(t, err)
	}
	require.Equal(t, 1, api.calls)
}

func TestGetParameterMissingValue(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}}
	c, err := New(api)
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorIs(t, err, ErrNoValue)
}

func TestGetParameterAPIError(t *testing.T) {
	api := &fakeSSM{err: errors.New("access denied")}
	c, err := New(api)
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "access denied")
	// Failures are never cached.
	_, _ = c.GetParameter(context.Background(), "p")
	require.Equal(t, 2, api.calls)
}

func TestGetParameterEmptyName(t *testing.T) {
	c, err := New(&fakeSSM{})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestNewNilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilAPI)
}
