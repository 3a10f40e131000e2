package dependencies

import (
	"github.com/jonboulle/clockwork"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
)

// baseScope implements BaseScope interface.
type baseScope struct {
	clock     clockwork.Clock
	logger    log.Logger
	telemetry telemetry.Telemetry
	process   *servicectx.Process
}

func NewBaseScope(clk clockwork.Clock, logger log.Logger, tel telemetry.Telemetry, proc *servicectx.Process) BaseScope {
	return newBaseScope(clk, logger, tel, proc)
}

func newBaseScope(clk clockwork.Clock, logger log.Logger, tel telemetry.Telemetry, proc *servicectx.Process) *baseScope {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if tel == nil {
		tel = telemetry.NewNop()
	}
	return &baseScope{clock: clk, logger: logger, telemetry: tel, process: proc}
}

func (v *baseScope) Clock() clockwork.Clock {
	return v.clock
}

func (v *baseScope) Logger() log.Logger {
	return v.logger
}

func (v *baseScope) Telemetry() telemetry.Telemetry {
	return v.telemetry
}

func (v *baseScope) Process() *servicectx.Process {
	return v.process
}
