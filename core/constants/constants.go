package constants

import "time"

const (
	DefaultRequestTimeout   = 10 * time.Second
	DirectoryLookupTimeout  = 3 * time.Second
	NotificationEnqueueWait = 2 * time.Second
	CacheOperationTimeout   = 500 * time.Millisecond
)

// Context keys
const (
	ContextTokenData = "token_data"
)

// Token scopes
const (
	ScopeTokenAccess = "access"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleExecBoard = "exec_board"
	RoleSecretary = "secretary"
	RoleMember    = "member"
)

// Pagination
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// Redis keys
const (
	RedisKeyFeedDocument = "feed:doc:"
)

// Queue task types
const (
	TaskNotificationDispatch = "notification:dispatch"
)

// Scheduling
const (
	AppointmentBufferMinutes = 5
	MaxSlotMinutes           = 24 * 60
	DefaultTokenMinutes      = 60
	MaxTokenMinutes          = 30 * 24 * 60
)

// Retry policy for primary writes
const (
	PrimaryWriteAttempts  = 3
	PrimaryWriteBaseDelay = 100 * time.Millisecond
)
