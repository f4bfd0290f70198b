package featureflag

type Flag string

const (
	// Check the octree and search grid candidates around the local grid
	// points before initializing them.
	FlagCrossCheckIndex Flag = "CROSS_CHECK_INDEX"

	// Initialize with both strategies and fail when they disagree.
	FlagCrossCheckStrategies Flag = "CROSS_CHECK_STRATEGIES"

	// Do not compare the geometry fingerprints of the ranks.
	FlagSkipReplicaCheck Flag = "SKIP_REPLICA_CHECK"

	// Keep the admin server running once the grid is initialized.
	FlagKeepServing Flag = "KEEP_SERVING"
)

// Flags returns the known feature flags.
func Flags() []Flag {
	return []Flag{
		FlagCrossCheckIndex,
		FlagCrossCheckStrategies,
		FlagSkipReplicaCheck,
		FlagKeepServing,
	}
}
