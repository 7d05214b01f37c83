// Package tick provides a cheap periodic trigger for consumer hot loops.
//
// Consumers call Tick() once per delivered item and report progress when it
// returns true. Only one of the competing consumers wins each interval.
package tick

import "time"

// DefaultInterval is the progress reporting interval used by the CLIs.
const DefaultInterval = time.Second
