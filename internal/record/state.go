package record

// State is the lifecycle position of a subdomain's design.
type State int

const (
	NoDesign     State = iota // S0
	Designed                  // S1: design, no deployment
	Deploying                 // S2: deployment pending
	Live                      // S3: deployment completed
	DeployFailed              // S4: deployment failed
)

var stateNames = [...]string{"no_design", "designed", "deploying", "live", "deploy_failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// State derives the lifecycle state from the stored fields.  An unknown
// deployment status is treated as pending.
func (r *Record) State() State {
	if !r.HasDesign() {
		return NoDesign
	}
	dep := r.Design.Deployment
	if dep == nil {
		return Designed
	}
	switch dep.Status {
	case StatusCompleted:
		return Live
	case StatusFailed:
		return DeployFailed
	default:
		return Deploying
	}
}
