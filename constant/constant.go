package constant

type JobStatus string

const (
	JobStatusTranscoding        JobStatus = "TRANSCODING"
	JobStatusFullyAvailable     JobStatus = "FULLY_AVAILABLE"
	JobStatusPartiallyAvailable JobStatus = "PARTIALLY_AVAILABLE"
	JobStatusFailed             JobStatus = "FAILED"
	JobStatusPublished          JobStatus = "PUBLISHED"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// Media types used by the delivery routes.
const (
	MediaTypePlaylist = "application/vnd.apple.mpegurl"
	MediaTypeSegment  = "video/MP2T"
	MediaTypeVideo    = "video/mp4"
	MediaTypeBinary   = "application/octet-stream"
)
