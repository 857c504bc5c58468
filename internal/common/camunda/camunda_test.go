package camunda

import (
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("permission denied")))
}

func TestNewClientWithConfig_UnreachableBroker(t *testing.T) {
	start := time.Now()
	_, err := NewClientWithConfig(&ClientConfig{
		GatewayAddress:         "127.0.0.1:1",
		UsePlaintextConnection: true,
		ConnectionTimeout:      200 * time.Millisecond,
		RetryConfig:            &RetryConfig{MaxTries: 2, BaseDelay: 10 * time.Millisecond, MaxElapsed: 5 * time.Second},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDecodeVariables(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Variables: `{"question":"quanto vendemos?"}`}}

	var in struct {
		Question string `json:"question"`
	}
	require.NoError(t, DecodeVariables(job, &in))
	assert.Equal(t, "quanto vendemos?", in.Question)

	bad := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 8, Variables: `{`}}
	assert.Error(t, DecodeVariables(bad, &in))

	empty := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 9}}
	assert.Error(t, DecodeVariables(empty, &in))
}
