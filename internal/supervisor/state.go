package supervisor

type State int32

const (
	Idle State = iota
	Starting
	Running
	Exited
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}
