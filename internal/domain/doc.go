// Package domain defines the entities of the focus economy: user profiles,
// staked tasks, and the immutable focus session records produced when a
// timer run reaches a terminal outcome.
//
// # Task Lifecycle
//
// Tasks move through a one-way lifecycle:
//   - Pending: The task is created and its coin bid is reserved.
//   - Active: A focus session is running against the task.
//   - Completed / Failed: Terminal. Set only by settlement.
//
// A task's coin bid is deducted from the owner's daily coins at creation and
// only comes back through a successful settlement payout.
package domain
