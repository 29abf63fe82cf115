package schedule

// Fixed UTC offsets in whole hours for the zones the dashboard offers.
//
// Offsets are treated as constant: no DST. That is a documented
// simplification; every supported zone here is whole-hour and the external
// scheduler has five-minute granularity and up to an hour of propagation
// delay anyway, so seasonal drift is within the noise the product accepts.
var timezoneOffsets = map[string]int{
	"UTC":                 0,
	"Asia/Shanghai":       8,
	"Asia/Tokyo":          9,
	"Asia/Seoul":          9,
	"Asia/Singapore":      8,
	"Asia/Hong_Kong":      8,
	"Europe/London":       0,
	"Europe/Paris":        1,
	"Europe/Berlin":       1,
	"America/New_York":    -5,
	"America/Chicago":     -6,
	"America/Denver":      -7,
	"America/Los_Angeles": -8,
	"Australia/Sydney":    11,
}

// OffsetHours resolves a zone name to its UTC offset in hours.
//
// Unknown zones degrade to 0 (UTC) instead of failing so that schedule
// computation never errors on a bad zone string; callers that care should
// validate the zone upstream.
func OffsetHours(zone string) int {
	if off, ok := timezoneOffsets[zone]; ok {
		return off
	}
	return 0
}

// SupportedTimezones lists the zone names the dashboard may offer, in a
// stable order.
func SupportedTimezones() []string {
	return []string{
		"Asia/Shanghai",
		"Asia/Tokyo",
		"Asia/Seoul",
		"Asia/Singapore",
		"Asia/Hong_Kong",
		"Europe/London",
		"Europe/Paris",
		"Europe/Berlin",
		"America/New_York",
		"America/Chicago",
		"America/Denver",
		"America/Los_Angeles",
		"Australia/Sydney",
		"UTC",
	}
}
