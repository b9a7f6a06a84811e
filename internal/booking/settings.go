package booking

// Settings holds the operational tunables the availability engine and
// orchestrator enforce. Values come from the environment at startup.
type Settings struct {
	MaxAdvanceDays   int     // how far ahead a reservation may start
	MinNoticeHours   float64 // minimum gap between now and the start time
	BufferMinutes    int     // turnaround margin between charters on one unit
	OpenMinute       int     // operating window start, minutes since midnight
	CloseMinute      int     // operating window end, minutes since midnight
	MinDurationHours float64 // shortest bookable charter
	MaxDurationHours float64 // longest bookable charter
	SlotStepMinutes  int     // stride used when suggesting alternative slots
	BaseRate         float64 // hourly rate per unit before adjustments
	TaxPercent       float64
	TaxInclusive     bool
	FleetFallback    int // total units assumed when the boats table is empty
}
