package inheritance

const (
	starting = "starting"
	finished = "finished"

	failedToFetchRecords         = "failed-to-fetch-records"
	failedToFetchChildren        = "failed-to-fetch-children"
	failedToFetchGroupGrantedIDs = "failed-to-fetch-group-granted-ids"

	deniedByGlobalGate = "denied-by-global-gate"
	cycleDetected      = "cycle-detected"
)

const (
	metricCacheHits       = "permissions.cache.hits"
	metricCacheMisses     = "permissions.cache.misses"
	metricResolveDuration = "permissions.resolve.duration"
)
