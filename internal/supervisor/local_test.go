package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingSupervisorMethodsSucceed(t *testing.T) {
	s := LoggingSupervisor{}
	ctx := context.Background()

	assert.NoError(t, s.StartProcess(ctx, "web:api", "--flag"))
	assert.NoError(t, s.StopProcess(ctx, "web:api"))
	assert.NoError(t, s.Restart(ctx))
	assert.NoError(t, s.Shutdown(ctx))
}

func TestLoggingSupervisorSatisfiesInterface(t *testing.T) {
	var _ LocalSupervisor = LoggingSupervisor{}
}
