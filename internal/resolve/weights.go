package resolve

// Search priority weights. Lower priority values are explored first.
const (
	PriorityBase             = 10.0
	PriorityExactRole        = 6.0
	PriorityClickable        = 3.0
	PriorityControlContainer = 2.0
	PriorityContainer        = 1.0
	PriorityLabelOverlap     = 4.0 // multiplied by word overlap
	PriorityProximity        = 2.0 // multiplied by 1 - normalised distance

	ContainerDepthPenalty    = 0.1
	ContainerDepthPenaltyMax = 1.0
	LeafDepthPenalty         = 0.3
	LeafDepthPenaltyMax      = 2.0
)

// Role-class priorities used by the last search phase.
const (
	ClassControlContainer = 0.0
	ClassClickable        = 1.0
	ClassInteractive      = 2.0
	ClassWebArea          = 3.0
	ClassContainer        = 4.0 // plus min(depth, 5)
	ClassOther            = 10.0
)

// Search phase thresholds.
const (
	HighConfidenceScore = 0.95 // skip later phases
	LowConfidenceScore  = 0.85 // run the role-class phase below this
	MinPhaseBudget      = 100
	FocusedPhaseFloor   = 1000

	// PoolSettleVisits ends a phase once the strict pool has not grown for
	// this many visits.
	PoolSettleVisits = 250
)

// Content filters.
const (
	MinNodeSize         = 12.0
	LineThickness       = 6.0
	LineMinLength       = 60.0
	BulkListChildren    = 100
	BulkListDepth       = 8
	BulkAnyChildren     = 200
	BulkAnyDepth        = 10
	MaxBubbleHops       = 5
	MaxLabelParentHops  = 6
	MaxParentChain      = 8
	MaxDescendantSearch = 3
	MaxInspectClimb     = 5
	MaxMenuBarNodes     = 10000
	MaxWindowMenuNodes  = 5000
)

// Micro-refinement scores for child descent.
const (
	ChildMismatchCost = 100
	ChildRoleBonus    = 150
	ChildLabelBonus   = 200
	ChildPressBonus   = 100

	NeighborMismatchCost = 100
)

// Geometry tolerances.
const (
	PositionTolerance = 2.0  // px
	SizeTolerance     = 0.02 // relative

	// An activation point farther than this many element sizes from the
	// frame center is rejected.
	ActivationSpread     = 2.0
	QuickActivationRange = 3.0

	// Activation points at the screen's bottom-left corner are bogus.
	EdgeMaxX      = 1.0
	EdgeMinY      = 1000.0
	QuickEdgeMinY = 1070.0

	BiasedInsetMax   = 10.0
	BiasedInsetRatio = 0.2
)
