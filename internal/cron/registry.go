package cron

import "context"

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}
