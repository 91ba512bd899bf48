package storage

type Storage interface {
	// audit log
	AppendEvents(events []*EventRecord) error
	GetEvents(runID string, raffleIndex uint64, offset int, limit int) ([]*EventRecord, error)
	GetLastEventSequence() (uint64, error)

	// randomness requests
	UpdateRandomnessRequest(request *RandomnessRequestRecord) error
	GetRandomnessRequest(requestID string) (*RandomnessRequestRecord, error)
	GetPendingRandomnessRequests() ([]*RandomnessRequestRecord, error)
	AbandonRandomnessRequests(runID string) (int64, error)

	Close() error
}

type RequestStatus = string

const (
	PendingRequestStatus   RequestStatus = "pending"
	FulfilledRequestStatus RequestStatus = "fulfilled"
	// AbandonedRequestStatus marks requests of an earlier run; the
	// registry that issued them no longer exists.
	AbandonedRequestStatus RequestStatus = "abandoned"
)

type Driver = string

const (
	SqliteDriver   Driver = "sqlite"
	MysqlDriver    Driver = "mysql"
	PostgresDriver Driver = "postgres"
)
