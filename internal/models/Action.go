package models

// Action selects which side-effect category a status record represents.
// Values outside the known set are kept verbatim.
type Action string

const (
	ActionNone    Action = ""
	ActionPending Action = "pending"
	ActionRender  Action = "render"
	ActionQR      Action = "qr"
	ActionInj     Action = "inj"
)

func (a Action) Known() bool {
	switch a {
	case ActionPending, ActionRender, ActionQR, ActionInj:
		return true
	}
	return false
}
