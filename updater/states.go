package updater

import "github.com/looplab/fsm"

// Session states. A session moves strictly forward through these; Failed
// is terminal and reachable from every non-terminal state.
const (
	StateIdle               = "idle"
	StateDecoding           = "decoding"
	StateRebootPending      = "reboot_pending"
	StateAwaitingBootloader = "awaiting_bootloader"
	StateTransferring       = "transferring"
	StateVerifying          = "verifying"
	StateCompleted          = "completed"
	StateFailed             = "failed"
)

// Session events.
const (
	eventStart    = "start"
	eventReboot   = "reboot"
	eventProbe    = "probe"
	eventTransfer = "transfer"
	eventFinalize = "finalize"
	eventComplete = "complete"
	eventFail     = "fail"
)

// newSessionFSM builds the session state machine. The reboot event is
// taken only when the reboot option is set; otherwise decoding advances
// straight to the bootloader probe.
func newSessionFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle}, Dst: StateDecoding},
			{Name: eventReboot, Src: []string{StateDecoding}, Dst: StateRebootPending},
			{Name: eventProbe, Src: []string{StateDecoding, StateRebootPending}, Dst: StateAwaitingBootloader},
			{Name: eventTransfer, Src: []string{StateAwaitingBootloader}, Dst: StateTransferring},
			{Name: eventFinalize, Src: []string{StateTransferring}, Dst: StateVerifying},
			{Name: eventComplete, Src: []string{StateVerifying}, Dst: StateCompleted},
			{Name: eventFail, Src: []string{
				StateIdle, StateDecoding, StateRebootPending,
				StateAwaitingBootloader, StateTransferring, StateVerifying,
			}, Dst: StateFailed},
		},
		fsm.Callbacks{},
	)
}
