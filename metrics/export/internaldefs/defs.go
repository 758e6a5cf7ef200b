package internaldefs

import (
	storefront "github.com/MrEthical07/storefront"
)

// Def names one exported series.
type Def struct {
	ID   storefront.MetricID
	Name string
	Help string
}

// Counters lists every exported counter in exposition order.
var Counters = []Def{
	{storefront.MetricVerifySuccess, "storefront_session_verify_success_total", "Stored credentials accepted by the Auth API."},
	{storefront.MetricVerifyFailure, "storefront_session_verify_failure_total", "Stored credentials rejected or unreadable."},
	{storefront.MetricVerifySkipped, "storefront_session_verify_skipped_total", "Stored credentials discarded as locally expired."},
	{storefront.MetricLoginSuccess, "storefront_login_success_total", "Successful logins."},
	{storefront.MetricLoginFailure, "storefront_login_failure_total", "Logins rejected by the Auth API or transport."},
	{storefront.MetricLoginInvalidInput, "storefront_login_invalid_input_total", "Logins rejected before any network call."},
	{storefront.MetricRegisterSuccess, "storefront_register_success_total", "Successful registrations."},
	{storefront.MetricRegisterFailure, "storefront_register_failure_total", "Failed registrations."},
	{storefront.MetricLogout, "storefront_logout_total", "Logouts."},
	{storefront.MetricSuperseded, "storefront_superseded_total", "Responses discarded because a newer operation started."},
	{storefront.MetricGateAllow, "storefront_gate_allow_total", "Guarded routes entered."},
	{storefront.MetricGateRedirect, "storefront_gate_redirect_total", "Guarded routes redirected to login."},
	{storefront.MetricGatePending, "storefront_gate_pending_total", "Guarded routes answered while the session was initializing."},
	{storefront.MetricCartMutation, "storefront_cart_mutation_total", "Cart mutations."},
	{storefront.MetricCartPersistWrite, "storefront_cart_persist_write_total", "Cart snapshots written to the persister."},
	{storefront.MetricCartPersistFailure, "storefront_cart_persist_failure_total", "Cart snapshot writes that failed."},
}

// Histograms lists exported latency histograms.
var Histograms = []Def{
	{storefront.MetricAuthAPILatency, "storefront_auth_api_latency_seconds", "Auth API round trip for verify, login and register."},
}

// AuditDropped is exported alongside the snapshot counters.
var AuditDropped = Def{Name: "storefront_audit_dropped_total", Help: "Audit events dropped on a full buffer."}

// Bound is one histogram bucket upper bound in Prometheus form and as an
// identifier-safe suffix.
type Bound struct {
	Le     string
	Suffix string
}

// Bounds mirror the in-process bucket layout; the last one is +Inf.
var Bounds = [BucketCount]Bound{
	{"0.005", "0_005"},
	{"0.01", "0_01"},
	{"0.025", "0_025"},
	{"0.05", "0_05"},
	{"0.1", "0_1"},
	{"0.25", "0_25"},
	{"0.5", "0_5"},
	{"+Inf", "inf"},
}

const BucketCount = 8

// Cumulative converts non-cumulative snapshot buckets into cumulative counts.
// Missing buckets count as zero.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
