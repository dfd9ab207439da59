// Package titlesync keeps local title data and one access group per
// corporation in step with the titles a corporation assigns in EVE.
//
// A sweep groups every credential owner by the corporation of their main
// character. For each corporation the owners are tried in order until one
// of them can read the corporation's titles (failover, never broadcast).
// If the corporation has a title mapped to a group, the owners are tried
// again for the member titles, and the group is reconciled so that it holds
// exactly the local users whose characters carry the mapped title.
//
// Corporations are independent and may run concurrently. Attempts within
// one corporation are always sequential.
package titlesync
