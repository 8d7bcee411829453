package domain

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrRateLimited      = errors.New("rate limited by platform API")
)
