package hybrid

import "github.com/suPer8Hu/supportbot/internal/intent"

const (
	SourceLocal     = "local"
	SourceConsensus = "consensus"
	SourceRemote    = "remote"

	// TrustThreshold is the local confidence above which the local model
	// decides alone.
	TrustThreshold = 0.7
	// ConsensusThreshold is the local confidence above which agreement with
	// the remote model is enough.
	ConsensusThreshold = 0.5
)

// Decision is the reconciled intent plus every signal that produced it.
type Decision struct {
	Intent          intent.Label `json:"final_intent"`
	Source          string       `json:"source"`
	LocalIntent     intent.Label `json:"local_intent"`
	LocalConfidence float64      `json:"local_confidence"`
	RemoteIntent    intent.Label `json:"remote_intent"`
}

// Decide combines the local prediction with the remote label. The first
// matching rule wins:
//
//  1. confidence > 0.7: local
//  2. confidence > 0.5 and both agree: consensus
//  3. otherwise: remote
//
// An unset local model is passed as ("", 0) and always resolves to remote.
func Decide(local intent.Label, confidence float64, remote intent.Label) Decision {
	d := Decision{
		LocalIntent:     local,
		LocalConfidence: confidence,
		RemoteIntent:    remote,
	}
	switch {
	case confidence > TrustThreshold:
		d.Intent, d.Source = local, SourceLocal
	case confidence > ConsensusThreshold && local == remote:
		d.Intent, d.Source = local, SourceConsensus
	default:
		d.Intent, d.Source = remote, SourceRemote
	}
	return d
}
