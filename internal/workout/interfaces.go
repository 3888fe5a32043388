package workout

import (
	"github.com/sergiomo/diy-rower-monitor/internal/boat"
	"github.com/sergiomo/diy-rower-monitor/internal/machine"
	"github.com/sergiomo/diy-rower-monitor/internal/person"
)

// machine.Metrics satisfies both of these read-only views without either
// package importing the other; this is where that structural contract is
// actually checked at compile time.
var (
	_ person.MachineView = (*machine.Metrics)(nil)
	_ boat.SpeedSource   = (*machine.Metrics)(nil)
)
