// Package rate throttles failed storefront logins with fixed-window Redis
// counters: INCR on each failure, EXPIRE on the first hit of a window, DEL on
// success.
//
// Keys:
//   - {prefix}:email:{email} per account
//   - {prefix}:ip:{ip} per client address, when PerIP is set
package rate
