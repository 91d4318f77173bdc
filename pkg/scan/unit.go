package scan

// UnitState is the progress of one classfile through a scan.
type UnitState int

const (
	UnitPending UnitState = iota // Not yet parsed; dropped units of a cancelled scan stay here
	UnitParsed                   // Decoded, waiting to be merged
	UnitMerged                   // Part of the graph
	UnitFailed                   // Rejected; Err says why
)

func (s UnitState) String() string {
	switch s {
	case UnitParsed:
		return "PARSED"
	case UnitMerged:
		return "MERGED"
	case UnitFailed:
		return "FAILED"
	default:
		return "PENDING"
	}
}

// Unit is one accepted classfile of a scan.
type Unit struct {
	Order     int    // Position in enumeration order
	Resource  string // "element!path"
	ClassName string // Name implied by the resource path
	State     UnitState
	Err       error // Set for FAILED units
}
