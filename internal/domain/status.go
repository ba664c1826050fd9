package domain

// BotStatus is the orchestrator lifecycle state.
// Transitions are strictly sequential (stopped → starting → running →
// stopping → stopped); error is reachable from starting or running when
// the transport becomes unusable.
type BotStatus string

const (
	StatusStopped  BotStatus = "stopped"
	StatusStarting BotStatus = "starting"
	StatusRunning  BotStatus = "running"
	StatusStopping BotStatus = "stopping"
	StatusError    BotStatus = "error"
)
