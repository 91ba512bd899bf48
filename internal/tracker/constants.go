package tracker

import "time"

const tooManyRequests = 429

var rateLimitDelay = 500 * time.Millisecond
