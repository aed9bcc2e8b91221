package statsd

import "time"

// nowFunc supplies the timestamp DrainForFlush samples once per flush.
var nowFunc = time.Now
