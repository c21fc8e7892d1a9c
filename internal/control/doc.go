// Package control provides the joint-level controllers used around the
// whole-body controller.
//
// Controllers implement the [dynamo.Controller] interface:
//
//   - [Posture]: PD regulation of the actuated joints around a posture
//   - [Hold]: zero-order hold of the last control sent by the planner,
//     zero until the first one
//
// # Usage
//
//	pd := control.NewPosture(nq, actuated, qref, 200, 20) // Kp, Kd
//	solver := &horizon.Rollout{Policy: pd}
//
// Posture supports live tuning through GetParams and SetParam.
package control
