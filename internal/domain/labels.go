package domain

// Label keys put on helper containers so leftovers can be found and removed.
const (
	LabelShim   = "composectl.shim"
	LabelTarget = "composectl.target"
)
